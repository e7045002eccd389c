package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

// captureStatus redirects status output to a buffer for the test's duration.
func captureStatus(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := statusOut
	statusOut = &buf
	t.Cleanup(func() { statusOut = prev })
	return &buf
}

func TestSpinnerBasic(t *testing.T) {
	buf := captureStatus(t)

	s := newSpinner("Testing...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Testing...") {
		t.Errorf("spinner output = %q, want message", buf.String())
	}
	if !s.Cancelled() {
		t.Error("Stop should release the spinner context")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	captureStatus(t)
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Testing with context...")
	s.Start()

	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	captureStatus(t)

	s := newSpinner("Testing idempotent stop...")
	s.Start()
	s.Start()

	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	buf := captureStatus(t)

	s := newSpinner("never shown")
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a spinner that was never started")
	}
	if buf.Len() != 0 {
		t.Errorf("unstarted spinner wrote %q", buf.String())
	}
}
