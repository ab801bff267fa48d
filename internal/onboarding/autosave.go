package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultAutosaveTimeout = 5 * time.Second

// Sink receives per-step deltas on a best-effort basis. Save must not block and
// reports nothing back; each delta is delivered at most once.
type Sink interface {
	Save(stepIndex int, patch map[string]any)
}

// StepSaver persists the delta of one step for a website.
type StepSaver interface {
	SaveStep(ctx context.Context, websiteID string, stepIndex int, patch map[string]any) error
}

// AutosaveRecorder observes autosave results.
type AutosaveRecorder interface {
	ObserveAutosave(success bool, d time.Duration)
}

// NopSink drops every delta.
type NopSink struct{}

func (NopSink) Save(int, map[string]any) {}

// AsyncSink forwards deltas to a StepSaver on background goroutines. Failures are
// logged and swallowed.
type AsyncSink struct {
	saver     StepSaver
	websiteID string
	timeout   time.Duration
	logger    *slog.Logger
	recorder  AutosaveRecorder

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// SinkOption configures an AsyncSink.
type SinkOption func(*AsyncSink)

func WithSaveTimeout(d time.Duration) SinkOption {
	return func(s *AsyncSink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithSinkLogger(l *slog.Logger) SinkOption {
	return func(s *AsyncSink) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithAutosaveRecorder(r AutosaveRecorder) SinkOption {
	return func(s *AsyncSink) {
		s.recorder = r
	}
}

// NewAsyncSink returns a sink saving deltas of websiteID through saver.
func NewAsyncSink(saver StepSaver, websiteID string, opts ...SinkOption) *AsyncSink {
	s := &AsyncSink{
		saver:     saver,
		websiteID: websiteID,
		timeout:   defaultAutosaveTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save starts persisting patch and returns immediately.
func (s *AsyncSink) Save(stepIndex int, patch map[string]any) {
	s.mu.Lock()
	if s.closed || s.saver == nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		start := time.Now()
		err := s.save(stepIndex, patch)
		s.finish(stepIndex, err, time.Since(start))
	}()
}

func (s *AsyncSink) save(stepIndex int, patch map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("onboarding: autosave panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.saver.SaveStep(ctx, s.websiteID, stepIndex, patch)
}

func (s *AsyncSink) finish(stepIndex int, err error, d time.Duration) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	if s.recorder != nil {
		s.recorder.ObserveAutosave(err == nil, d)
	}
	if err != nil {
		s.logger.Warn("autosave failed", "website_id", s.websiteID, "step_index", stepIndex, "err", err)
	}
}

// Flush waits for in-flight saves until ctx is done. It reports whether all saves
// finished.
func (s *AsyncSink) Flush(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close stops accepting deltas. Saves still in flight complete silently.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
