package id

import (
	"fmt"
	"strings"
)

// WraparoundPolicy decides what happens when a millisecond's sequence range
// is used up.
type WraparoundPolicy int

const (
	// WraparoundWait polls the clock until the next millisecond, bounded by
	// Options.MaxWait.
	WraparoundWait WraparoundPolicy = iota
	// WraparoundFail returns ErrSequenceExhausted immediately.
	WraparoundFail
)

func (p WraparoundPolicy) String() string {
	switch p {
	case WraparoundWait:
		return "wait"
	case WraparoundFail:
		return "fail"
	default:
		return fmt.Sprintf("WraparoundPolicy(%d)", int(p))
	}
}

// ParseWraparoundPolicy accepts "wait" or "fail".
func ParseWraparoundPolicy(s string) (WraparoundPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wait", "block":
		return WraparoundWait, nil
	case "fail", "error":
		return WraparoundFail, nil
	default:
		return 0, newConfigError("wraparound", s, "use wait|fail")
	}
}

// RegressionPolicy decides what happens when the clock reads earlier than
// the last issued millisecond.
type RegressionPolicy int

const (
	// RegressionFail returns ErrClockRegression immediately.
	RegressionFail RegressionPolicy = iota
	// RegressionWait waits for the clock to catch up if it is behind by no more
	// than Options.ClockTolerance.
	RegressionWait
)

func (p RegressionPolicy) String() string {
	switch p {
	case RegressionFail:
		return "fail"
	case RegressionWait:
		return "wait"
	default:
		return fmt.Sprintf("RegressionPolicy(%d)", int(p))
	}
}

// ParseRegressionPolicy accepts "fail" or "wait".
func ParseRegressionPolicy(s string) (RegressionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail", "error":
		return RegressionFail, nil
	case "wait", "block":
		return RegressionWait, nil
	default:
		return 0, newConfigError("clockRegression", s, "use fail|wait")
	}
}
