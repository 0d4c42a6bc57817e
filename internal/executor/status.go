package executor

import "fmt"

// Status is the lifecycle state of one task within one pass.
type Status int

const (
	Pending Status = iota
	Ready
	Running
	Succeeded
	Failed
	Canceled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether s can no longer change.
func (s Status) Terminal() bool {
	return s == Succeeded || s == Failed || s == Canceled
}

// canMove reports whether the transition from s to next is allowed.
func (s Status) canMove(next Status) bool {
	switch s {
	case Pending:
		return next == Ready
	case Ready:
		return next == Running || next == Canceled
	case Running:
		return next == Succeeded || next == Failed
	default:
		return false
	}
}
