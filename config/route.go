package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Optimus825482/lujobuggy/module/core/geo"
)

// RouteConfig is the shuttle route polyline loaded from a YAML file. The
// vertices are ordered along the driving direction; consecutive runs far
// apart are treated as separate segments when snapping.
type RouteConfig struct {
	Name     string        `yaml:"name" validate:"required"`
	Vertices []RouteVertex `yaml:"vertices" validate:"required,min=2,dive"`
}

type RouteVertex struct {
	Lat float64 `yaml:"lat" validate:"min=-90,max=90"`
	Lng float64 `yaml:"lng" validate:"min=-180,max=180"`
}

// LoadRoute reads and validates the route file and builds the snap geometry.
func LoadRoute(path string) (*geo.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file: %w", err)
	}

	var cfg RouteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse route file: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate route file: %w", err)
	}

	points := make([]geo.Point, 0, len(cfg.Vertices))
	for _, v := range cfg.Vertices {
		points = append(points, geo.Point{Lat: v.Lat, Lng: v.Lng})
	}
	return geo.NewRoute(points), nil
}
