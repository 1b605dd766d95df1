package metrics

import "sync"

// InMemory is a Recorder backed by in-process counters.
// Safe for concurrent use.
type InMemory struct {
	mu sync.Mutex

	authSuccess     int64
	authFailures    map[string]int64
	logins          map[string]int64
	ownershipDenied int64
	bookMutations   map[string]int64
	pageMutations   map[string]int64
}

// NewInMemory returns an in-memory Recorder.
func NewInMemory() *InMemory {
	return &InMemory{
		authFailures:  make(map[string]int64),
		logins:        make(map[string]int64),
		bookMutations: make(map[string]int64),
		pageMutations: make(map[string]int64),
	}
}

func (m *InMemory) IncAuthSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authSuccess++
}

func (m *InMemory) IncAuthFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authFailures[reason]++
}

func (m *InMemory) IncLogin(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[status]++
}

func (m *InMemory) IncOwnershipDenied() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ownershipDenied++
}

func (m *InMemory) IncBookMutation(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookMutations[op]++
}

func (m *InMemory) IncPageMutation(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageMutations[op]++
}

// Snapshot returns a copy of all counters.
func (m *InMemory) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		AuthSuccess:     m.authSuccess,
		AuthFailures:    copyCounts(m.authFailures),
		Logins:          copyCounts(m.logins),
		OwnershipDenied: m.ownershipDenied,
		BookMutations:   copyCounts(m.bookMutations),
		PageMutations:   copyCounts(m.pageMutations),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
