package core

import (
	"context"
	"testing"
	"time"
)

// TestJoinContext_FinishedThreadWinsOverDoneContext verifies join priority
// Given: a thread whose callable has already returned
// When: JoinContext is called with a cancelled context
// Then: the join succeeds every time and the Thread becomes empty
func TestJoinContext_FinishedThreadWinsOverDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 200; i++ {
		th, err := New(func() {})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		waitFinished(t, th.h)

		if err := th.JoinContext(ctx); err != nil {
			t.Fatalf("run %d: JoinContext on a finished thread = %v, want nil", i, err)
		}
		if th.Joinable() {
			t.Fatalf("run %d: Thread still joinable after JoinContext", i)
		}
	}
}

func waitFinished(t *testing.T, h *handle) {
	t.Helper()
	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("thread did not finish")
	}
}
