package config

import (
	"context"
	"database/sql"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
)

// HealthChecker reports whether the fleet backend can do its job: persist to
// Postgres, publish dispatch events on the bus, and receive tracker fixes
// over MQTT. Any failing dependency turns the endpoint into a 503.
type HealthChecker struct {
	deps []depCheck
}

type depCheck struct {
	name  string
	check func(ctx context.Context) error
}

func NewHealthChecker(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client) *HealthChecker {
	return &HealthChecker{deps: []depCheck{
		{name: "postgres", check: func(ctx context.Context) error {
			return db.PingContext(ctx)
		}},
		{name: "rabbitmq", check: func(ctx context.Context) error {
			if amqpConn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}},
		{name: "mqtt", check: func(ctx context.Context) error {
			if !mqttClient.IsConnected() {
				return mqtt.ErrNotConnected
			}
			return nil
		}},
	}}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}
	for _, d := range h.deps {
		if err := d.check(c.Request.Context()); err != nil {
			deps[d.name] = gin.H{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
			continue
		}
		deps[d.name] = gin.H{"status": "up"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{"status": overall, "dependencies": deps})
}
