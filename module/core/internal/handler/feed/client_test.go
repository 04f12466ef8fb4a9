package feed

import (
	"context"
	"testing"
	"time"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
)

type mockTrackerSvc struct {
	positions []domain.RawPosition
	statuses  []bool
}

func (m *mockTrackerSvc) ProcessPosition(_ context.Context, raw *domain.RawPosition) error {
	m.positions = append(m.positions, *raw)
	return nil
}

func (m *mockTrackerSvc) HandleDeviceStatus(_ context.Context, _ int64, online bool) error {
	m.statuses = append(m.statuses, online)
	return nil
}

func TestHandleMessage_Positions(t *testing.T) {
	svc := &mockTrackerSvc{}
	client := &Client{trackerSvc: svc}

	payload := []byte(`{"positions":[{"deviceId":101,"latitude":36.5444,"longitude":32.0012,"speed":10,"course":45,"valid":true,"fixTime":"2026-05-06T12:30:56Z"}]}`)
	client.handleMessage(context.Background(), payload)

	if len(svc.positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(svc.positions))
	}
	p := svc.positions[0]
	if p.DeviceID != 101 || p.Heading != 45 || !p.Valid {
		t.Fatalf("unexpected position: %+v", p)
	}
	want := time.Date(2026, 5, 6, 12, 30, 56, 0, time.UTC)
	if !p.RecordedAt.Equal(want) {
		t.Errorf("expected %v, got %v", want, p.RecordedAt)
	}
}

func TestHandleMessage_DeviceStatus(t *testing.T) {
	svc := &mockTrackerSvc{}
	client := &Client{trackerSvc: svc}

	payload := []byte(`{"devices":[{"id":101,"status":"offline"},{"id":102,"status":"unknown"}]}`)
	client.handleMessage(context.Background(), payload)

	// unknown is ignored
	if len(svc.statuses) != 1 || svc.statuses[0] {
		t.Fatalf("expected one offline status, got %v", svc.statuses)
	}
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	svc := &mockTrackerSvc{}
	client := &Client{trackerSvc: svc}

	client.handleMessage(context.Background(), []byte("{broken"))
	if len(svc.positions) != 0 || len(svc.statuses) != 0 {
		t.Fatal("expected message to be dropped")
	}
}

func TestSocketURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"http://tracker.local:8082", "ws://tracker.local:8082/api/socket"},
		{"https://tracker.example.com/", "wss://tracker.example.com/api/socket"},
	}
	for _, tc := range cases {
		c := &Client{cfg: Config{URL: tc.in}}
		if got := c.socketURL(); got != tc.want {
			t.Errorf("socketURL(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
