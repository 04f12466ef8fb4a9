package publisher

import (
	"context"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
)

type EventPublisher interface {
	PublishGeofence(ctx context.Context, event *domain.GeofenceEvent) error
	PublishSnapshot(ctx context.Context, snapshot *domain.Snapshot) error
}
