package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Loop runs tick every interval until stopped. A failing tick is logged and
// retried on the next interval.
type Loop struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context) error
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLoop(name string, interval time.Duration, tick func(ctx context.Context) error, logger *slog.Logger) *Loop {
	return &Loop{
		name:     name,
		interval: interval,
		tick:     tick,
		logger:   logger.With("worker", name),
	}
}

func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

// Stop cancels the loop and waits for the in-flight tick, bounded by ctx.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("Background worker started", "interval", l.interval.String())
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Background worker stopped")
			return
		case <-ticker.C:
			if err := l.tick(ctx); err != nil && ctx.Err() == nil {
				l.logger.Error("Background worker tick failed", "error", err.Error())
			}
		}
	}
}
