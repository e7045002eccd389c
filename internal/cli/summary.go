package cli

import (
	"context"
	"sync/atomic"
)

// wrapperStats collects wrapper events for the preparation summary.
// Events arrive from parallel generator calls.
type wrapperStats struct {
	written atomic.Int64
	corrupt atomic.Int64
	bytes   atomic.Int64
}

func (s *wrapperStats) OnWrapperReused(context.Context, string) {}

func (s *wrapperStats) OnWrapperWritten(_ context.Context, _, _ string, size int) {
	s.written.Add(1)
	s.bytes.Add(int64(size))
}

func (s *wrapperStats) OnWrapperCorrupt(context.Context, string, error) {
	s.corrupt.Add(1)
}
