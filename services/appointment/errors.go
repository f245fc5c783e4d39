package appointment

import "fmt"

// TransitionError reports a state-machine violation: the appointment is not
// in a state the requested move is legal from. It is a business conflict,
// not a transient failure; callers must not retry it.
type TransitionError struct {
	AppointmentID string
	Current       string
	Requested     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("appointment %s is %s; cannot move to %s", e.AppointmentID, e.Current, e.Requested)
}
