package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/geo"
)

type fleetService interface {
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
	GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error)
	ListStops(ctx context.Context) ([]domain.Stop, error)
	ListVisits(ctx context.Context, vehicleID int64, limit int) ([]domain.StopVisit, error)
	ListEvents(ctx context.Context, vehicleID int64, limit int) ([]domain.GeofenceEvent, error)
	CreateStop(ctx context.Context, stop *domain.Stop) error
	UpdateStop(ctx context.Context, stop *domain.Stop) error
	DailyStats(ctx context.Context, date string) (*domain.DailyStats, error)
	SetVehicleStatus(ctx context.Context, id int64, status domain.VehicleStatus) error
	CheckGeofence(ctx context.Context, p geo.Point) (*domain.Stop, float64, error)
}

type FleetHandler struct {
	fleetSvc fleetService
}

func NewFleetHandler(fleetSvc fleetService) *FleetHandler {
	return &FleetHandler{fleetSvc: fleetSvc}
}

func (h *FleetHandler) Register(r *gin.RouterGroup) {
	r.GET("/vehicles", h.ListVehicles)
	r.GET("/vehicles/:vehicle_id", h.GetVehicle)
	r.GET("/vehicles/:vehicle_id/history", h.GetHistory)
	r.GET("/vehicles/:vehicle_id/visits", h.ListVisits)
	r.GET("/vehicles/:vehicle_id/events", h.ListEvents)
	r.PATCH("/vehicles/:vehicle_id/status", h.SetStatus)
	r.GET("/stops", h.ListStops)
	r.POST("/stops", h.CreateStop)
	r.PUT("/stops/:stop_id", h.UpdateStop)
	r.GET("/stats/daily", h.DailyStats)
	r.GET("/geofence/check", h.CheckGeofence)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *FleetHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.fleetSvc.ListVehicles(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to fetch vehicles")
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *FleetHandler) GetVehicle(c *gin.Context) {
	id, ok := pathID(c, "vehicle_id")
	if !ok {
		return
	}
	vehicle, err := h.fleetSvc.GetVehicle(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch vehicle")
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *FleetHandler) GetHistory(c *gin.Context) {
	id, ok := pathID(c, "vehicle_id")
	if !ok {
		return
	}
	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}
	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	positions, err := h.fleetSvc.GetHistory(c.Request.Context(), &domain.HistoryQuery{
		VehicleID: id,
		From:      time.Unix(start, 0),
		To:        time.Unix(end, 0),
		Limit:     limit,
	})
	if err != nil {
		writeError(c, err, "failed to fetch history")
		return
	}
	c.JSON(http.StatusOK, positions)
}

func (h *FleetHandler) ListVisits(c *gin.Context) {
	id, ok := pathID(c, "vehicle_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	visits, err := h.fleetSvc.ListVisits(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err, "failed to fetch visits")
		return
	}
	c.JSON(http.StatusOK, visits)
}

func (h *FleetHandler) ListEvents(c *gin.Context) {
	id, ok := pathID(c, "vehicle_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	events, err := h.fleetSvc.ListEvents(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err, "failed to fetch events")
		return
	}
	c.JSON(http.StatusOK, events)
}

type statusRequest struct {
	Status domain.VehicleStatus `json:"status" binding:"required"`
}

func (h *FleetHandler) SetStatus(c *gin.Context) {
	id, ok := pathID(c, "vehicle_id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if err := h.fleetSvc.SetVehicleStatus(c.Request.Context(), id, req.Status); err != nil {
		writeError(c, err, "failed to update status")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FleetHandler) ListStops(c *gin.Context) {
	stops, err := h.fleetSvc.ListStops(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to fetch stops")
		return
	}
	c.JSON(http.StatusOK, stops)
}

type stopRequest struct {
	Name           string   `json:"name" binding:"required"`
	Lat            *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng            *float64 `json:"lng" binding:"required,min=-180,max=180"`
	GeofenceRadius float64  `json:"geofence_radius"`
	IsActive       *bool    `json:"is_active"`
}

func (req *stopRequest) toStop() *domain.Stop {
	stop := &domain.Stop{
		Name:           req.Name,
		Lat:            *req.Lat,
		Lng:            *req.Lng,
		GeofenceRadius: req.GeofenceRadius,
		IsActive:       true,
	}
	if req.IsActive != nil {
		stop.IsActive = *req.IsActive
	}
	return stop
}

func (h *FleetHandler) CreateStop(c *gin.Context) {
	var req stopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	stop := req.toStop()
	if err := h.fleetSvc.CreateStop(c.Request.Context(), stop); err != nil {
		writeError(c, err, "failed to create stop")
		return
	}
	c.JSON(http.StatusCreated, stop)
}

func (h *FleetHandler) UpdateStop(c *gin.Context) {
	id, ok := pathID(c, "stop_id")
	if !ok {
		return
	}
	var req stopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	stop := req.toStop()
	stop.ID = id
	if err := h.fleetSvc.UpdateStop(c.Request.Context(), stop); err != nil {
		writeError(c, err, "failed to update stop")
		return
	}
	c.JSON(http.StatusOK, stop)
}

func (h *FleetHandler) DailyStats(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date parameter"})
		return
	}
	stats, err := h.fleetSvc.DailyStats(c.Request.Context(), date)
	if err != nil {
		writeError(c, err, "failed to fetch stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *FleetHandler) CheckGeofence(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat parameter"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng parameter"})
		return
	}

	stop, dist, err := h.fleetSvc.CheckGeofence(c.Request.Context(), geo.Point{Lat: lat, Lng: lng})
	if err != nil {
		writeError(c, err, "failed to check geofence")
		return
	}
	if stop == nil {
		c.JSON(http.StatusOK, gin.H{"inside": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inside": true, "stop": stop, "distance": dist})
}
