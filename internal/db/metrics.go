package db

import (
	"context"
	"time"

	"github.com/crocodiledundalk/fomolt3d/internal/db/model"
	"github.com/crocodiledundalk/fomolt3d/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

var _ DbInterface = (*DbWithMetrics)(nil)

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveActivityEvent(ctx context.Context, event *model.ActivityEvent) error {
	return d.run("SaveActivityEvent", func() error {
		return d.db.SaveActivityEvent(ctx, event)
	})
}

func (d *DbWithMetrics) GetRecentActivity(ctx context.Context, limit int64) ([]*model.ActivityEvent, error) {
	return runWithData("GetRecentActivity", func() ([]*model.ActivityEvent, error) {
		return d.db.GetRecentActivity(ctx, limit)
	})
}

func (d *DbWithMetrics) GetRoundActivity(ctx context.Context, round uint64, limit int64) ([]*model.ActivityEvent, error) {
	return runWithData("GetRoundActivity", func() ([]*model.ActivityEvent, error) {
		return d.db.GetRoundActivity(ctx, round, limit)
	})
}

func (d *DbWithMetrics) GetLastProcessedSignature(ctx context.Context) (string, error) {
	return runWithData("GetLastProcessedSignature", func() (string, error) {
		return d.db.GetLastProcessedSignature(ctx)
	})
}

func (d *DbWithMetrics) UpdateLastProcessedSignature(ctx context.Context, signature string) error {
	return d.run("UpdateLastProcessedSignature", func() error {
		return d.db.UpdateLastProcessedSignature(ctx, signature)
	})
}

func (d *DbWithMetrics) run(method string, f func() error) error {
	_, err := runWithData(method, func() (struct{}, error) {
		return struct{}{}, f()
	})
	return err
}

func runWithData[T any](method string, f func() (T, error)) (T, error) {
	start := time.Now()
	v, err := f()

	outcome := metrics.Success
	// duplicate inserts are the dedup mechanism working, not a fault
	if err != nil && !IsDuplicateKeyError(err) {
		outcome = metrics.Error
	}
	metrics.RecordDbLatency(method, time.Since(start), outcome)
	return v, err
}
