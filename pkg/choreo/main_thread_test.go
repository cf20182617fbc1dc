package choreo

import (
	"testing"
	"time"
)

func TestMainThreadSchedulerRunsOnlyWhenPolled(t *testing.T) {
	s := NewMainThreadScheduler()
	calls := 0
	s.AfterFunc(5*time.Millisecond, func() { calls++ })

	if n := s.RunPending(); n != 0 || calls != 0 {
		t.Fatalf("Callback ran before its delay: n=%d calls=%d", n, calls)
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		s.RunPending()
	}
	if calls != 1 {
		t.Fatalf("Expected callback to run once, got %d", calls)
	}
	if n := s.RunPending(); n != 0 {
		t.Errorf("Callback should not run twice, got %d", n)
	}
}
