package tasks

import (
	"context"
	"fmt"
	"time"
)

const auditRetentionTimeout = 2 * time.Minute

// newAuditRetentionTask creates the task that prunes audit entries older
// than audit.retention. A zero retention keeps everything.
func newAuditRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "audit_retention")

	return func(ctx context.Context) error {
		retention := deps.Config.Audit.Retention
		if retention <= 0 {
			log.DebugContext(ctx, "Audit retention disabled, skipping")
			return nil
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, auditRetentionTimeout)
		defer cancel()

		cutoff := deps.clock().Now().Add(-retention)
		pruned, err := deps.Store.PruneLogs(timeoutCtx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Audit retention task failed", "error", err, "cutoff", cutoff)
			return fmt.Errorf("audit retention failed: %w", err)
		}

		log.InfoContext(ctx, "Audit retention task completed", "pruned", pruned, "cutoff", cutoff)
		return nil
	}
}
