package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pozial/pozial-api/internal/shared"
)

// AuditPruneJob deletes audit records past the retention window.
type AuditPruneJob struct {
	Audit     *shared.AuditLogger
	Logger    *slog.Logger
	Retention time.Duration
}

// NewAuditPruneJob initialises the prune handler.
func NewAuditPruneJob(audit *shared.AuditLogger, logger *slog.Logger, retention time.Duration) *AuditPruneJob {
	return &AuditPruneJob{Audit: audit, Logger: logger, Retention: retention}
}

// Handle executes one prune run. The payload retention overrides the
// configured default when set.
func (j *AuditPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Audit == nil {
		return errors.New("audit prune: handler not configured")
	}
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = j.Retention
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}

	deleted, err := j.Audit.Prune(ctx, retention)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("audit prune failed", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("audit prune complete",
			slog.Int64("deleted", deleted),
			slog.Duration("retention", retention))
	}
	return nil
}
