package pipeline

// State is a step of a lead-processing run. A result reports the last
// state reached; its status tells whether the run ended DONE or FAILED.
type State int

const (
	StateReceived State = iota
	StateScored
	StateRegistered
	StateEnrolled
	StateSkippedEnrollment
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateScored:
		return "SCORED"
	case StateRegistered:
		return "REGISTERED"
	case StateEnrolled:
		return "ENROLLED"
	case StateSkippedEnrollment:
		return "SKIPPED_ENROLLMENT"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
