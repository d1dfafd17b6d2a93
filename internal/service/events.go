package service

import (
	"context"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"go.uber.org/zap"
)

// eventSink publishes domain events after a commit. A failed publish is
// logged and counted; the write it describes has already happened.
type eventSink struct {
	pub     port.EventPublisher
	metrics *observability.Metrics
	logger  *zap.Logger
}

func (s eventSink) publish(ctx context.Context, eventType string, ownerID, entityID int64, payload any) {
	if s.pub == nil {
		return
	}

	ev := domain.Event{
		Type:       eventType,
		OwnerID:    ownerID,
		EntityID:   entityID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.metrics.IncrEvent(eventType, false)
		s.logger.Warn("event publish failed",
			zap.String("type", eventType),
			zap.Int64("entity_id", entityID),
			zap.Error(err),
		)
		return
	}
	s.metrics.IncrEvent(eventType, true)
}
