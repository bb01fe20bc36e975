// Package form holds the submission state machine of one form session.
//
// A session starts Idle. An explicit submission moves it to Submitted,
// the finished prediction moves it to Displayed, and only another
// explicit submission starts the next cycle. Re-rendering the page never
// re-runs the models.
package form

import (
	"errors"
	"fmt"
	"sync"

	"restaurant-intel/internal/features"
	"restaurant-intel/internal/predict"
)

type State int

const (
	Idle State = iota
	Submitted
	Displayed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitted:
		return "submitted"
	case Displayed:
		return "displayed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid form state transition")

// Session is safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	state  State
	input  features.RawInput
	result *predict.Result
	err    error
	cycles int
}

func NewSession() *Session {
	return &Session{state: Idle, input: features.DefaultRawInput()}
}

// Submit starts a cycle. It fails while a previous cycle is still running.
func (s *Session) Submit(in features.RawInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Submitted {
		return fmt.Errorf("%w: submit while %s", ErrInvalidTransition, s.state)
	}
	s.state = Submitted
	s.input = in
	s.result = nil
	s.err = nil
	s.cycles++
	return nil
}

// Complete records the outcome of the running cycle. A failed cycle is
// still Displayed, with its error in place of a result.
func (s *Session) Complete(result predict.Result, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Submitted {
		return fmt.Errorf("%w: complete while %s", ErrInvalidTransition, s.state)
	}
	s.state = Displayed
	if err != nil {
		s.err = err
		return nil
	}
	s.result = &result
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Input returns the inputs of the last submission, or the defaults.
func (s *Session) Input() features.RawInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Result returns the displayed outcome. Both values are nil unless the
// session is Displayed.
func (s *Session) Result() (*predict.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Displayed {
		return nil, nil
	}
	if s.result == nil {
		return nil, s.err
	}
	r := *s.result
	return &r, s.err
}

// Cycles counts accepted submissions.
func (s *Session) Cycles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}
