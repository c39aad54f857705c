package db

import (
	"context"

	"github.com/crocodiledundalk/fomolt3d/internal/db/model"
)

//go:generate mockery --name=DbInterface --output=../../tests/mocks --outpkg=mocks --filename=mock_db_client.go
type DbInterface interface {
	Ping(ctx context.Context) error

	SaveActivityEvent(ctx context.Context, event *model.ActivityEvent) error
	GetRecentActivity(ctx context.Context, limit int64) ([]*model.ActivityEvent, error)
	GetRoundActivity(ctx context.Context, round uint64, limit int64) ([]*model.ActivityEvent, error)

	GetLastProcessedSignature(ctx context.Context) (string, error)
	UpdateLastProcessedSignature(ctx context.Context, signature string) error
}
