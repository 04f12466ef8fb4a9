package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/Optimus825482/lujobuggy/config"
	"github.com/Optimus825482/lujobuggy/module/core"
)

func main() {
	cfg := config.Load()

	route, err := config.LoadRoute(cfg.RouteFile)
	if err != nil {
		log.Fatalf("route: %v", err)
	}

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	opts := core.Options{
		Route:            route,
		StopSnapRadius:   cfg.StopSnapRadius,
		RouteMaxDistance: cfg.RouteMaxDistance,
		EnterDebounce:    cfg.EnterDebounce,
		FeedURL:          cfg.FeedURL,
		FeedUser:         cfg.FeedUser,
		FeedPassword:     cfg.FeedPassword,
	}

	coreModule, err := core.Build(db, amqpConn, mqttClient, opts)
	if err != nil {
		log.Fatalf("core module: %v", err)
	}

	if err := coreModule.StartSubscribers(); err != nil {
		log.Fatalf("start subscribers: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	coreModule.StartFeed(ctx)

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)

	coreModule.RegisterRoutes(&r.RouterGroup)

	log.Printf("listening on :%s", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("server: %v", err)
	}
}
