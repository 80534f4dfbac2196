package synchronizer

import (
	"context"
	"errors"
	"strings"
	"time"

	"welfarehub/internal/welfare/models"
)

// The jobs below have the scheduler's (ctx, now) shape. They return an error
// when a run was partial so the scheduler records the failure; the work that
// did succeed is kept. A run skipped because its scope was busy is not an
// error.

func (s *Synchronizer) CentralJob(ctx context.Context, _ time.Time) error {
	return resultErr(s.SyncCentral(ctx))
}

func (s *Synchronizer) LocalJob(ctx context.Context, _ time.Time) error {
	return resultErr(s.SyncMajorRegions(ctx))
}

func (s *Synchronizer) CleanupJob(ctx context.Context, now time.Time) error {
	_, err := s.DeactivateStale(ctx, now)
	return err
}

func resultErr(r models.SyncResult) error {
	if r.Disabled || r.InProgress || (len(r.Errors) == 0 && r.Failed == 0) {
		return nil
	}
	msg := strings.Join(r.Errors, "; ")
	if msg == "" {
		msg = "record failures"
	}
	return errors.New(r.Source + " sync partial: " + msg)
}
