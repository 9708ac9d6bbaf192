package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"doubtdesk/internal/config"
	"doubtdesk/internal/repository"
)

// Dispatcher periodically answers doubts that no human has picked up within
// the grace period. Each tick is a fully contained unit of work: failures are
// logged, the lock is released and the doubt stays eligible for the next
// cycle. Multiple server processes may each run a dispatcher against the
// shared store; the atomic lock acquire is the only cross-instance
// coordination.
type Dispatcher struct {
	doubtRepo repository.DoubtRepo
	responder *AIResponder
	interval  time.Duration
	grace     time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewDispatcher creates a new AI dispatch scheduler.
func NewDispatcher(doubtRepo repository.DoubtRepo, responder *AIResponder, cfg *config.AIConfig, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		doubtRepo: doubtRepo,
		responder: responder,
		interval:  cfg.PollInterval,
		grace:     cfg.GracePeriod,
		log:       log,
		now:       time.Now,
	}
}

// Run ticks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("AI dispatcher started",
		zap.Duration("interval", d.interval), zap.Duration("grace", d.grace))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("AI dispatcher stopped")
			return
		case <-ticker.C:
			d.RunOnce(ctx)
		}
	}
}

// RunOnce scans for eligible doubts and answers each under the AI lock.
func (d *Dispatcher) RunOnce(ctx context.Context) {
	cutoff := d.now().Add(-d.grace)
	doubts, err := d.doubtRepo.FindAwaitingAI(ctx, cutoff)
	if err != nil {
		d.log.Error("failed to find unanswered doubts", zap.Error(err))
		return
	}

	for _, doubt := range doubts {
		locked, err := d.doubtRepo.TryAcquireAILock(ctx, doubt.ID)
		if err != nil {
			d.log.Error("failed to acquire AI lock",
				zap.String("doubtId", doubt.ID), zap.Error(err))
			continue
		}
		if !locked {
			d.log.Debug("doubt already being processed",
				zap.String("doubtId", doubt.ID))
			continue
		}

		answer, err := d.responder.answerLocked(ctx, doubt)
		if err != nil {
			// Lock already released; the doubt will be retried next cycle.
			d.log.Error("AI answer attempt failed",
				zap.String("doubtId", doubt.ID), zap.Error(err))
			continue
		}
		if answer == nil {
			d.log.Debug("doubt already has a student response",
				zap.String("doubtId", doubt.ID))
			continue
		}

		d.log.Info("AI answered doubt", zap.String("doubtId", doubt.ID))
	}
}
