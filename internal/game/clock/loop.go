package clock

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrLoopStopped is returned by Post once the loop has stopped.
var ErrLoopStopped = errors.New("clock: loop stopped")

// Loop drives a Manager in real time. Each tick advances the Manager by the
// wall time elapsed since the previous tick, then runs the registered frame
// callbacks. Work posted from other goroutines is run on the loop goroutine
// between ticks, which keeps the Manager and everything it schedules
// single-threaded.
type Loop struct {
	mgr      *Manager
	interval time.Duration
	logger   *zap.Logger

	posts chan func()

	mu      sync.Mutex
	frames  []func(dt time.Duration)
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewLoop returns a Loop that ticks mgr every interval.
//
// Precondition: mgr and logger must be non-nil; interval must be > 0.
func NewLoop(mgr *Manager, interval time.Duration, logger *zap.Logger) *Loop {
	if interval <= 0 {
		panic("clock.NewLoop: interval must be > 0")
	}
	return &Loop{
		mgr:      mgr,
		interval: interval,
		logger:   logger,
		posts:    make(chan func(), 64),
		stopped:  make(chan struct{}),
	}
}

// OnFrame registers fn to run after timers on every tick.
func (l *Loop) OnFrame(fn func(dt time.Duration)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, fn)
}

// Post schedules fn to run on the loop goroutine and waits for it to finish.
//
// Postcondition: fn has run, or ErrLoopStopped / ctx.Err() is returned.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}
	select {
	case l.posts <- wrapped:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks until ctx is cancelled or Stop is called. It blocks.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()
	defer close(l.stopped)
	defer cancel()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	last := time.Now()
	l.logger.Info("clock loop started", zap.Duration("interval", l.interval))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("clock loop stopped", zap.Duration("virtual_time", l.mgr.Now()))
			return nil
		case fn := <-l.posts:
			fn()
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			l.tick(dt)
		}
	}
}

// Stop ends Run. Safe to call before Run or more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (l *Loop) tick(dt time.Duration) {
	fired := l.mgr.Advance(dt)
	if fired > 0 {
		l.logger.Debug("timers fired", zap.Int("count", fired), zap.Duration("now", l.mgr.Now()))
	}
	l.mu.Lock()
	frames := make([]func(time.Duration), len(l.frames))
	copy(frames, l.frames)
	l.mu.Unlock()
	for _, fn := range frames {
		fn(dt)
	}
}
