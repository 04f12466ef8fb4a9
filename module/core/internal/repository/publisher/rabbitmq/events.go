package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/publisher"
)

var _ publisher.EventPublisher = (*EventPublisher)(nil)

const (
	exchangeName = "fleet.events"

	geofenceQueue = "geofence_events"
	positionQueue = "position_updates"

	geofenceKey = "geofence"
	positionKey = "position"
)

type EventPublisher struct {
	ch *amqp.Channel
}

func NewEventPublisher(conn *amqp.Connection) (*EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	for queue, key := range map[string]string{geofenceQueue: geofenceKey, positionQueue: positionKey} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, key, exchangeName, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return &EventPublisher{ch: ch}, nil
}

type geofenceMessage struct {
	EventID    string  `json:"event_id"`
	VehicleID  int64   `json:"vehicle_id"`
	StopID     int64   `json:"stop_id"`
	StopName   string  `json:"stop_name,omitempty"`
	Type       string  `json:"type"`
	Distance   float64 `json:"distance"`
	OccurredAt int64   `json:"occurred_at"`
}

func (p *EventPublisher) PublishGeofence(ctx context.Context, event *domain.GeofenceEvent) error {
	msg := geofenceMessage{
		EventID:    uuid.NewString(),
		VehicleID:  event.VehicleID,
		StopID:     event.StopID,
		StopName:   event.StopName,
		Type:       string(event.Type),
		Distance:   event.Distance,
		OccurredAt: event.OccurredAt.Unix(),
	}
	return p.publish(ctx, geofenceKey, msg)
}

type snapshotMessage struct {
	EventID     string  `json:"event_id"`
	VehicleID   int64   `json:"vehicle_id"`
	VehicleName string  `json:"vehicle_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Speed       float64 `json:"speed"`
	Heading     float64 `json:"heading"`
	Status      string  `json:"status"`
	Corrected   string  `json:"corrected"`
	AtStopID    *int64  `json:"at_stop_id,omitempty"`
	RecordedAt  int64   `json:"recorded_at"`
}

func (p *EventPublisher) PublishSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	msg := snapshotMessage{
		EventID:     uuid.NewString(),
		VehicleID:   snapshot.VehicleID,
		VehicleName: snapshot.VehicleName,
		Lat:         snapshot.Lat,
		Lng:         snapshot.Lng,
		Speed:       snapshot.Speed,
		Heading:     snapshot.Heading,
		Status:      string(snapshot.Status),
		Corrected:   snapshot.Corrected,
		AtStopID:    snapshot.AtStopID,
		RecordedAt:  snapshot.RecordedAt.Unix(),
	}
	return p.publish(ctx, positionKey, msg)
}

func (p *EventPublisher) publish(ctx context.Context, key string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.ch.PublishWithContext(ctx, exchangeName, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
