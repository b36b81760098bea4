package scheduler

import (
	"context"
	"time"

	"barberia_backend/platform/logger"
)

const defaultAuditPruneInterval = time.Hour

// AuditPruner removes audit entries past their retention window.
type AuditPruner interface {
	Prune(ctx context.Context) error
}

// AuditRetention periodically prunes the audit trail.
type AuditRetention struct {
	pruner   AuditPruner
	log      *logger.Logger
	interval time.Duration
}

func NewAuditRetention(pruner AuditPruner, log *logger.Logger, interval time.Duration) *AuditRetention {
	if interval <= 0 {
		interval = defaultAuditPruneInterval
	}

	return &AuditRetention{
		pruner:   pruner,
		log:      log,
		interval: interval,
	}
}

func (r *AuditRetention) Run(ctx context.Context) {
	if r == nil || r.pruner == nil {
		return
	}

	r.prune(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.prune(ctx)
		}
	}
}

func (r *AuditRetention) prune(ctx context.Context) {
	if err := r.pruner.Prune(ctx); err != nil {
		r.log.Warn("audit retention prune failed", "error", err)
	}
}
