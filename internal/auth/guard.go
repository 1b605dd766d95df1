package auth

import (
	"errors"

	"github.com/bookery/bookery/internal/model"
)

// ErrNotOwner indicates the acting identity does not own the resource it
// is trying to mutate. Handlers translate it into a 403 response.
var ErrNotOwner = errors.New("not the owner of this resource")

// Operation classifies what a handler is about to do with a resource.
type Operation int

const (
	// OpRead covers retrieval. Reads are never gated by ownership.
	OpRead Operation = iota
	// OpMutate covers update and delete.
	OpMutate
)

// String returns the operation name for logging.
func (op Operation) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpMutate:
		return "mutate"
	default:
		return "unknown"
	}
}

// Ownable is a resource whose mutation rights belong to a single user.
// Pages satisfy it transitively: handlers resolve the parent book and
// authorize against that.
type Ownable interface {
	OwnerID() int64
}

// Authorize decides whether authCtx may perform op on resource.
// Read is always allowed, including with a nil context. Mutate is allowed
// only when the authenticated user is the resource owner.
//
// Authorize is a pure decision function: it must be called by handlers
// before the mutating store operation, and has no side effects of its own.
func Authorize(authCtx *model.AuthContext, op Operation, resource Ownable) error {
	if op == OpRead {
		return nil
	}
	if authCtx == nil || authCtx.User == nil {
		return ErrNotOwner
	}
	if resource.OwnerID() != authCtx.User.ID {
		return ErrNotOwner
	}
	return nil
}
