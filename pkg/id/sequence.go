package id

import "math"

// Step reports how Sequence.Next treated the observed millisecond.
type Step int

const (
	// StepAdvanced means a new millisecond started at sequence 0.
	StepAdvanced Step = iota
	// StepSame means the sequence was bumped within the last millisecond.
	StepSame
	// StepExhausted means the last millisecond has no sequence values left.
	StepExhausted
	// StepRegressed means the observed millisecond is before the last one.
	StepRegressed
)

func (s Step) String() string {
	switch s {
	case StepAdvanced:
		return "advanced"
	case StepSame:
		return "same"
	case StepExhausted:
		return "exhausted"
	case StepRegressed:
		return "regressed"
	default:
		return "unknown"
	}
}

// noMillis marks a counter that has not issued anything yet.
const noMillis int64 = math.MinInt64

// Sequence is the per-millisecond counter. It is not safe for concurrent use;
// Generator serializes access.
type Sequence struct {
	max  uint64
	last int64
	seq  uint64
}

// NewSequence returns a counter bounded to bits.
func NewSequence(bits uint8) *Sequence {
	return &Sequence{max: 1<<bits - 1, last: noMillis}
}

// Next returns the sequence value for current. State only changes on
// StepAdvanced and StepSame.
func (s *Sequence) Next(current int64) (uint64, Step) {
	switch {
	case current > s.last:
		s.last = current
		s.seq = 0
		return 0, StepAdvanced
	case current == s.last:
		if s.seq >= s.max {
			return s.seq, StepExhausted
		}
		s.seq++
		return s.seq, StepSame
	default:
		return s.seq, StepRegressed
	}
}

// Last returns the last issuing millisecond, or false before any issuance.
func (s *Sequence) Last() (int64, bool) {
	return s.last, s.last != noMillis
}

// Resume treats last as fully used so nothing is issued at or before it.
func (s *Sequence) Resume(last int64) {
	s.last = last
	s.seq = s.max
}
