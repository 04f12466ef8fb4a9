package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Optimus825482/lujobuggy/config"
	"github.com/Optimus825482/lujobuggy/module/core/geo"
)

type positionMessage struct {
	DeviceID  int64   `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Valid     bool    `json:"valid"`
	Timestamp int64   `json:"timestamp"`
}

// simVehicle walks the route vertex by vertex, with a little GPS noise so
// the correction pipeline has something to do.
type simVehicle struct {
	deviceID int64
	index    int
}

func (v *simVehicle) next(route *geo.Route) positionMessage {
	point := route.Vertex(v.index)
	heading := 0.0
	if v.index+1 < route.Len() {
		heading = geo.Bearing(point, route.Vertex(v.index+1))
	}
	v.index = (v.index + 1) % route.Len()

	noise := func() float64 { return (rand.Float64() - 0.5) * 0.0002 }
	return positionMessage{
		DeviceID:  v.deviceID,
		Latitude:  point.Lat + noise(),
		Longitude: point.Lng + noise(),
		Speed:     5 + rand.Float64()*5,
		Heading:   heading,
		Valid:     rand.Float64() > 0.05,
		Timestamp: time.Now().Unix(),
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	cfg := config.Load()
	route, err := config.LoadRoute(cfg.RouteFile)
	if err != nil {
		log.Fatalf("route: %v", err)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID("buggy-simulator")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	vehicles := make([]*simVehicle, 3)
	for i := range vehicles {
		vehicles[i] = &simVehicle{
			deviceID: int64(101 + i),
			index:    rand.Intn(route.Len()),
		}
	}

	log.Printf("connected to %s, publishing every %ds along %d route vertices",
		cfg.MQTTBroker, intervalSec, route.Len())

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		for _, v := range vehicles {
			msg := v.next(route)
			payload, _ := json.Marshal(msg)
			topic := fmt.Sprintf("/fleet/device/%d/position", msg.DeviceID)

			token := client.Publish(topic, 1, false, payload)
			token.Wait()

			log.Printf("published to %s: %s", topic, payload)
		}
	}
}
