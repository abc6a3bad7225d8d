package delivery

import "fmt"

// State is the lifecycle position of a Session
type State int

const (
	Idle State = iota
	Streaming
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// IsTerminal reports whether no further transitions are possible
func (s State) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}
