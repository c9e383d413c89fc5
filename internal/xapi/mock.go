package xapi

import (
	"context"
	"sync"
)

// Recorder is a Sender for tests. It returns canned errors in FIFO order
// and records every statement it accepts.
type Recorder struct {
	mu         sync.Mutex
	errs       []error
	calls      int
	Statements []Statement
}

// NewRecorder creates a Recorder that fails with errs, one per call,
// before succeeding.
func NewRecorder(errs ...error) *Recorder {
	return &Recorder{errs: errs}
}

func (r *Recorder) Send(_ context.Context, statements ...Statement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return err
		}
	}
	r.Statements = append(r.Statements, statements...)
	return nil
}

// CallCount returns the number of Send calls made.
func (r *Recorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
