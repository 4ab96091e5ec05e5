package id

import "testing"

func TestSequenceSteps(t *testing.T) {
	s := NewSequence(2) // 0..3
	if _, ok := s.Last(); ok {
		t.Fatalf("fresh sequence reports a last millisecond")
	}

	want := []struct {
		ms   int64
		seq  uint64
		step Step
	}{
		{100, 0, StepAdvanced},
		{100, 1, StepSame},
		{100, 2, StepSame},
		{100, 3, StepSame},
		{100, 3, StepExhausted},
		{100, 3, StepExhausted},
		{99, 3, StepRegressed},
		{101, 0, StepAdvanced},
		{101, 1, StepSame},
		{105, 0, StepAdvanced},
	}
	for i, w := range want {
		seq, step := s.Next(w.ms)
		if seq != w.seq || step != w.step {
			t.Fatalf("call %d at %d: got (%d,%s) want (%d,%s)", i, w.ms, seq, step, w.seq, w.step)
		}
	}
	if last, ok := s.Last(); !ok || last != 105 {
		t.Fatalf("last = %d,%v", last, ok)
	}
}

func TestSequenceRegressionLeavesState(t *testing.T) {
	s := NewSequence(10)
	s.Next(50)
	s.Next(50)
	if _, step := s.Next(10); step != StepRegressed {
		t.Fatalf("want regressed, got %s", step)
	}
	if seq, step := s.Next(50); seq != 2 || step != StepSame {
		t.Fatalf("state changed by regression: (%d,%s)", seq, step)
	}
}

func TestSequenceResume(t *testing.T) {
	s := NewSequence(10)
	s.Resume(1000)
	if _, step := s.Next(1000); step != StepExhausted {
		t.Fatalf("resumed millisecond must be treated as used, got %s", step)
	}
	if _, step := s.Next(999); step != StepRegressed {
		t.Fatalf("want regressed, got %s", step)
	}
	if seq, step := s.Next(1001); seq != 0 || step != StepAdvanced {
		t.Fatalf("want (0,advanced), got (%d,%s)", seq, step)
	}
}
