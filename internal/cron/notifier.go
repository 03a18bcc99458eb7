// Package cron runs the periodic background jobs.
package cron

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reminder nudges approvers about sheets still waiting on them.
type Reminder interface {
	RemindApprovers(ctx context.Context) (int, error)
}

// Exporter retries attendance records whose export failed.
type Exporter interface {
	ExportPending(ctx context.Context) (int, error)
}

// Notifier runs the approval reminders and the export retry on a ticker.
type Notifier struct {
	log      *zap.Logger
	reminder Reminder
	exporter Exporter
	interval time.Duration
	timeout  time.Duration
}

// NewNotifier creates a Notifier. exporter may be nil.
func NewNotifier(log *zap.Logger, reminder Reminder, exporter Exporter, interval time.Duration) *Notifier {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Notifier{
		log:      log.Named("cron"),
		reminder: reminder,
		exporter: exporter,
		interval: interval,
		timeout:  30 * time.Second,
	}
}

// Start launches a goroutine that runs once immediately and then every
// interval until ctx is cancelled. The returned channel closes when the
// goroutine has exited.
func (n *Notifier) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		n.RunCycle(ctx)

		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				n.log.Info("notifier stopped")
				return
			case <-ticker.C:
				n.RunCycle(ctx)
			}
		}
	}()

	n.log.Info("notifier started", zap.Duration("interval", n.interval))
	return done
}

// RunCycle runs every job once. A failing job is logged and does not stop
// the others.
func (n *Notifier) RunCycle(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	sent, err := n.reminder.RemindApprovers(ctx)
	if err != nil {
		n.log.Error("approval reminders failed", zap.Error(err))
	} else {
		n.log.Info("approval reminders sent", zap.Int("count", sent))
	}

	if n.exporter == nil {
		return
	}
	exported, err := n.exporter.ExportPending(ctx)
	if err != nil {
		n.log.Error("attendance export retry failed", zap.Error(err))
		return
	}
	if exported > 0 {
		n.log.Info("attendance records exported", zap.Int("count", exported))
	}
}
