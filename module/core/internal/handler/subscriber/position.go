package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
)

const (
	positionTopic = "/fleet/device/+/position"
	statusTopic   = "/fleet/device/+/status"
)

type trackerService interface {
	ProcessPosition(ctx context.Context, raw *domain.RawPosition) error
	HandleDeviceStatus(ctx context.Context, deviceID int64, online bool) error
}

type positionMessage struct {
	DeviceID  int64   `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Valid     bool    `json:"valid"`
	Timestamp int64   `json:"timestamp"`
}

type statusMessage struct {
	DeviceID int64  `json:"device_id"`
	Status   string `json:"status"`
}

// PositionSubscriber feeds device positions and status changes from the MQTT
// broker into the tracker.
type PositionSubscriber struct {
	client     mqtt.Client
	trackerSvc trackerService
}

func NewPositionSubscriber(client mqtt.Client, trackerSvc trackerService) *PositionSubscriber {
	return &PositionSubscriber{client: client, trackerSvc: trackerSvc}
}

func (s *PositionSubscriber) Start() error {
	token := s.client.Subscribe(positionTopic, 1, s.handlePosition)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", positionTopic, err)
	}

	token = s.client.Subscribe(statusTopic, 1, s.handleStatus)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", statusTopic, err)
	}
	return nil
}

func (s *PositionSubscriber) handlePosition(_ mqtt.Client, msg mqtt.Message) {
	var raw positionMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid position message: %v", err)
		return
	}
	if err := validatePositionMessage(&raw); err != nil {
		log.Printf("validation error: %v", err)
		return
	}

	pos := &domain.RawPosition{
		DeviceID:   raw.DeviceID,
		Lat:        raw.Latitude,
		Lng:        raw.Longitude,
		Speed:      raw.Speed,
		Heading:    raw.Heading,
		Valid:      raw.Valid,
		RecordedAt: time.Unix(raw.Timestamp, 0),
	}
	if err := s.trackerSvc.ProcessPosition(context.Background(), pos); err != nil {
		log.Printf("process position error: %v", err)
	}
}

func (s *PositionSubscriber) handleStatus(_ mqtt.Client, msg mqtt.Message) {
	var raw statusMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid status message: %v", err)
		return
	}
	if raw.DeviceID <= 0 {
		log.Printf("validation error: device_id: required")
		return
	}
	if raw.Status != "online" && raw.Status != "offline" {
		log.Printf("validation error: status: must be online or offline")
		return
	}

	if err := s.trackerSvc.HandleDeviceStatus(context.Background(), raw.DeviceID, raw.Status == "online"); err != nil {
		log.Printf("device status error: %v", err)
	}
}

func validatePositionMessage(msg *positionMessage) error {
	if msg.DeviceID <= 0 {
		return fmt.Errorf("device_id: required")
	}
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Speed < 0 {
		return fmt.Errorf("speed: must not be negative")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
