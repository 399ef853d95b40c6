package statemachine

import (
	"errors"
	"fmt"
)

// TransitionError reports an event fired in a state that has no transition
// for it.
type TransitionError struct {
	From  State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("statemachine: no transition from %q for event %q", e.From, e.Event)
}

// IsTransitionError reports whether err is a *TransitionError.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
