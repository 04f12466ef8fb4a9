package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Optimus825482/lujobuggy/module/core/geo"
	"github.com/Optimus825482/lujobuggy/module/core/internal/handler/feed"
	handler "github.com/Optimus825482/lujobuggy/module/core/internal/handler/http"
	"github.com/Optimus825482/lujobuggy/module/core/internal/handler/subscriber"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database/postgres"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/publisher/rabbitmq"
	"github.com/Optimus825482/lujobuggy/module/core/service"
)

// Options carries the tunables the module needs beyond its connections.
type Options struct {
	Route            *geo.Route
	StopSnapRadius   float64
	RouteMaxDistance float64
	EnterDebounce    time.Duration

	// The feed settings are optional. When FeedURL is set the module pulls
	// positions from the tracking server's websocket in addition to the
	// MQTT topics.
	FeedURL      string
	FeedUser     string
	FeedPassword string
}

type Module struct {
	TrackerSvc  *service.TrackerService
	DispatchSvc *service.DispatchService
	FleetSvc    *service.FleetService

	fleetHandler    *handler.FleetHandler
	dispatchHandler *handler.DispatchHandler
	subscriber      *subscriber.PositionSubscriber
	feedClient      *feed.Client
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, opts Options) (*Module, error) {
	vehicleRepo := postgres.NewVehicleRepo(db)
	positionRepo := postgres.NewPositionRepo(db)
	stopRepo := postgres.NewStopRepo(db)
	callRepo := postgres.NewCallRepo(db)
	taskRepo := postgres.NewTaskRepo(db)
	visitRepo := postgres.NewVisitRepo(db)
	dispatchRepo := postgres.NewDispatchRepo(db)
	statsRepo := postgres.NewStatsRepo(db)

	eventPub, err := rabbitmq.NewEventPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}

	correctionSvc := service.NewCorrectionService(opts.Route, stopRepo, geo.CorrectionOptions{
		StopSnapRadius:   opts.StopSnapRadius,
		RouteMaxDistance: opts.RouteMaxDistance,
	})
	dispatchSvc := service.NewDispatchService(vehicleRepo, stopRepo, callRepo, taskRepo, dispatchRepo)
	trackerSvc := service.NewTrackerService(vehicleRepo, positionRepo, stopRepo, visitRepo,
		correctionSvc, eventPub, dispatchSvc, opts.EnterDebounce)
	fleetSvc := service.NewFleetService(vehicleRepo, positionRepo, stopRepo, visitRepo, statsRepo)

	m := &Module{
		TrackerSvc:      trackerSvc,
		DispatchSvc:     dispatchSvc,
		FleetSvc:        fleetSvc,
		fleetHandler:    handler.NewFleetHandler(fleetSvc),
		dispatchHandler: handler.NewDispatchHandler(dispatchSvc, callRepo, taskRepo),
		subscriber:      subscriber.NewPositionSubscriber(mqttClient, trackerSvc),
	}

	if opts.FeedURL != "" {
		client, err := feed.NewClient(feed.Config{
			URL:      opts.FeedURL,
			User:     opts.FeedUser,
			Password: opts.FeedPassword,
		}, trackerSvc)
		if err != nil {
			return nil, fmt.Errorf("feed client: %w", err)
		}
		m.feedClient = client
	}
	return m, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	r.Use(handler.RequestID())
	m.fleetHandler.Register(r)
	m.dispatchHandler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// StartFeed runs the tracking server feed, if one is configured, until the
// context is cancelled.
func (m *Module) StartFeed(ctx context.Context) {
	if m.feedClient == nil {
		return
	}
	go func() { _ = m.feedClient.Run(ctx) }()
}
