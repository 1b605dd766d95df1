package metrics

// Noop is a Recorder that discards all events.
type Noop struct{}

// NewNoop returns a no-op Recorder.
func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) IncAuthSuccess()            {}
func (*Noop) IncAuthFailure(string)      {}
func (*Noop) IncLogin(string)            {}
func (*Noop) IncOwnershipDenied()        {}
func (*Noop) IncBookMutation(string)     {}
func (*Noop) IncPageMutation(string)     {}
