package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
)

// Config points the client at a tracking server. The server exposes a
// session login endpoint and a websocket that streams position and device
// updates for the account's fleet.
type Config struct {
	URL      string
	User     string
	Password string
}

type trackerService interface {
	ProcessPosition(ctx context.Context, raw *domain.RawPosition) error
	HandleDeviceStatus(ctx context.Context, deviceID int64, online bool) error
}

// Client maintains a websocket subscription to the tracking server and feeds
// everything it receives into the tracker. The connection is re-established
// with backoff after any failure.
type Client struct {
	cfg        Config
	trackerSvc trackerService
	dialer     *websocket.Dialer
	http       *http.Client
}

func NewClient(cfg Config, trackerSvc trackerService) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		cfg:        cfg,
		trackerSvc: trackerSvc,
		dialer: &websocket.Dialer{
			Jar:              jar,
			HandshakeTimeout: 10 * time.Second,
		},
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}, nil
}

// Run connects and consumes the feed until the context is cancelled.
func (c *Client) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := c.connectAndConsume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("feed connection lost: %v, retrying in %s", err, backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Client) connectAndConsume(ctx context.Context) error {
	if err := c.login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	conn, _, err := c.dialer.DialContext(ctx, c.socketURL(), nil)
	if err != nil {
		return fmt.Errorf("dial socket: %w", err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("feed connected to %s", c.cfg.URL)

	// unblock ReadMessage when the context goes away
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		c.handleMessage(ctx, payload)
	}
}

func (c *Client) login(ctx context.Context) error {
	form := url.Values{}
	form.Set("email", c.cfg.User)
	form.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.URL, "/")+"/api/session",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) socketURL() string {
	u := strings.TrimSuffix(c.cfg.URL, "/")
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u + "/api/socket"
}

type feedMessage struct {
	Positions []feedPosition `json:"positions"`
	Devices   []feedDevice   `json:"devices"`
}

type feedPosition struct {
	DeviceID  int64     `json:"deviceId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Course    float64   `json:"course"`
	Valid     bool      `json:"valid"`
	FixTime   time.Time `json:"fixTime"`
}

type feedDevice struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (c *Client) handleMessage(ctx context.Context, payload []byte) {
	var msg feedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("invalid feed message: %v", err)
		return
	}

	for _, p := range msg.Positions {
		raw := &domain.RawPosition{
			DeviceID:   p.DeviceID,
			Lat:        p.Latitude,
			Lng:        p.Longitude,
			Speed:      p.Speed,
			Heading:    p.Course,
			Valid:      p.Valid,
			RecordedAt: p.FixTime,
		}
		if err := c.trackerSvc.ProcessPosition(ctx, raw); err != nil {
			log.Printf("process feed position for device %d: %v", p.DeviceID, err)
		}
	}

	for _, d := range msg.Devices {
		if d.Status != "online" && d.Status != "offline" {
			continue
		}
		if err := c.trackerSvc.HandleDeviceStatus(ctx, d.ID, d.Status == "online"); err != nil {
			log.Printf("feed device status for device %d: %v", d.ID, err)
		}
	}
}
