package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
)

type dispatchService interface {
	CreateCall(ctx context.Context, stopID int64) (*domain.Call, error)
	AssignCall(ctx context.Context, callID, vehicleID int64) (*domain.Task, error)
	CompleteCall(ctx context.Context, callID int64) (*domain.Call, error)
	CancelCall(ctx context.Context, callID int64, reason string) (*domain.Call, error)
	SetDropoff(ctx context.Context, taskID, stopID int64) (*domain.Task, error)
	Pickup(ctx context.Context, taskID int64) (*domain.Task, error)
	Dropoff(ctx context.Context, taskID int64) (*domain.Task, error)
	CompleteTask(ctx context.Context, taskID int64) (*domain.Task, error)
	CancelTask(ctx context.Context, taskID int64) (*domain.Task, error)
}

type callReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Call, error)
	List(ctx context.Context, status domain.CallStatus) ([]domain.Call, error)
}

type taskReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error)
}

type DispatchHandler struct {
	dispatchSvc dispatchService
	calls       callReader
	tasks       taskReader
}

func NewDispatchHandler(dispatchSvc dispatchService, calls callReader, tasks taskReader) *DispatchHandler {
	return &DispatchHandler{dispatchSvc: dispatchSvc, calls: calls, tasks: tasks}
}

func (h *DispatchHandler) Register(r *gin.RouterGroup) {
	r.POST("/calls", h.CreateCall)
	r.GET("/calls", h.ListCalls)
	r.GET("/calls/:call_id", h.GetCall)
	r.POST("/calls/:call_id/assign", h.AssignCall)
	r.POST("/calls/:call_id/complete", h.CompleteCall)
	r.POST("/calls/:call_id/cancel", h.CancelCall)
	r.GET("/tasks", h.ListTasks)
	r.GET("/tasks/:task_id", h.GetTask)
	r.POST("/tasks/:task_id/dropoff-stop", h.SetDropoff)
	r.POST("/tasks/:task_id/pickup", h.Pickup)
	r.POST("/tasks/:task_id/dropoff", h.Dropoff)
	r.POST("/tasks/:task_id/complete", h.CompleteTask)
	r.POST("/tasks/:task_id/cancel", h.CancelTask)
}

type createCallRequest struct {
	StopID int64 `json:"stop_id" binding:"required"`
}

func (h *DispatchHandler) CreateCall(c *gin.Context) {
	var req createCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	call, err := h.dispatchSvc.CreateCall(c.Request.Context(), req.StopID)
	if err != nil {
		writeError(c, err, "failed to create call")
		return
	}
	c.JSON(http.StatusCreated, call)
}

func (h *DispatchHandler) ListCalls(c *gin.Context) {
	status := domain.CallStatus(c.Query("status"))
	calls, err := h.calls.List(c.Request.Context(), status)
	if err != nil {
		writeError(c, err, "failed to fetch calls")
		return
	}
	c.JSON(http.StatusOK, calls)
}

func (h *DispatchHandler) GetCall(c *gin.Context) {
	callID, ok := pathID(c, "call_id")
	if !ok {
		return
	}
	call, err := h.calls.GetByID(c.Request.Context(), callID)
	if err != nil {
		writeError(c, err, "failed to fetch call")
		return
	}
	c.JSON(http.StatusOK, call)
}

type assignCallRequest struct {
	VehicleID int64 `json:"vehicle_id" binding:"required"`
}

func (h *DispatchHandler) AssignCall(c *gin.Context) {
	callID, ok := pathID(c, "call_id")
	if !ok {
		return
	}
	var req assignCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	task, err := h.dispatchSvc.AssignCall(c.Request.Context(), callID, req.VehicleID)
	if err != nil {
		writeError(c, err, "failed to assign call")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *DispatchHandler) CompleteCall(c *gin.Context) {
	callID, ok := pathID(c, "call_id")
	if !ok {
		return
	}
	call, err := h.dispatchSvc.CompleteCall(c.Request.Context(), callID)
	if err != nil {
		writeError(c, err, "failed to complete call")
		return
	}
	c.JSON(http.StatusOK, call)
}

type cancelCallRequest struct {
	Reason string `json:"reason"`
}

func (h *DispatchHandler) CancelCall(c *gin.Context) {
	callID, ok := pathID(c, "call_id")
	if !ok {
		return
	}
	var req cancelCallRequest
	_ = c.ShouldBindJSON(&req)

	call, err := h.dispatchSvc.CancelCall(c.Request.Context(), callID, req.Reason)
	if err != nil {
		writeError(c, err, "failed to cancel call")
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h *DispatchHandler) GetTask(c *gin.Context) {
	taskID, ok := pathID(c, "task_id")
	if !ok {
		return
	}
	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err, "failed to fetch task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *DispatchHandler) ListTasks(c *gin.Context) {
	status := domain.TaskStatus(c.Query("status"))
	tasks, err := h.tasks.List(c.Request.Context(), status)
	if err != nil {
		writeError(c, err, "failed to fetch tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

type dropoffStopRequest struct {
	StopID int64 `json:"stop_id" binding:"required"`
}

func (h *DispatchHandler) SetDropoff(c *gin.Context) {
	taskID, ok := pathID(c, "task_id")
	if !ok {
		return
	}
	var req dropoffStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	task, err := h.dispatchSvc.SetDropoff(c.Request.Context(), taskID, req.StopID)
	if err != nil {
		writeError(c, err, "failed to set dropoff")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *DispatchHandler) Pickup(c *gin.Context) {
	h.taskAction(c, h.dispatchSvc.Pickup, "failed to mark pickup")
}

func (h *DispatchHandler) Dropoff(c *gin.Context) {
	h.taskAction(c, h.dispatchSvc.Dropoff, "failed to mark dropoff")
}

func (h *DispatchHandler) CompleteTask(c *gin.Context) {
	h.taskAction(c, h.dispatchSvc.CompleteTask, "failed to complete task")
}

func (h *DispatchHandler) CancelTask(c *gin.Context) {
	h.taskAction(c, h.dispatchSvc.CancelTask, "failed to cancel task")
}

func (h *DispatchHandler) taskAction(c *gin.Context, fn func(ctx context.Context, taskID int64) (*domain.Task, error), fallback string) {
	taskID, ok := pathID(c, "task_id")
	if !ok {
		return
	}
	task, err := fn(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err, fallback)
		return
	}
	c.JSON(http.StatusOK, task)
}
