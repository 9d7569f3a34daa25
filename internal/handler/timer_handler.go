package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tictask/backend/internal/errors"
	"tictask/backend/internal/model"
	"tictask/backend/internal/service"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type startRequest struct {
	TaskID *string `json:"taskId"`
}

type updateConfigRequest struct {
	FocusDuration      int    `json:"focusDuration"`
	ShortBreakDuration int    `json:"shortBreakDuration"`
	LongBreakDuration  int    `json:"longBreakDuration"`
	LongBreakInterval  int    `json:"longBreakInterval"`
	StatusHint         string `json:"statusHint"`
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

// GetState returns the current TimerState. A ticking break is reported as
// status "running" with mode "break"; a pending or paused break is status
// "break". Clients should read mode to tell which interval is counting down.
func (h *TimerHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.timerService.GetState()})
}

func (h *TimerHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"config": h.timerService.GetConfig()})
}

// Start accepts an empty body or {"taskId": "..."}.
func (h *TimerHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}

	state, apiErr := h.timerService.Start(c.Request.Context(), req.TaskID)
	writeState(c, state, apiErr)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	state, apiErr := h.timerService.Pause(c.Request.Context())
	writeState(c, state, apiErr)
}

func (h *TimerHandler) Reset(c *gin.Context) {
	state, apiErr := h.timerService.Reset(c.Request.Context())
	writeState(c, state, apiErr)
}

func (h *TimerHandler) StartBreak(c *gin.Context) {
	state, apiErr := h.timerService.StartBreak(c.Request.Context())
	writeState(c, state, apiErr)
}

func (h *TimerHandler) SkipBreak(c *gin.Context) {
	state, apiErr := h.timerService.SkipBreak(c.Request.Context())
	writeState(c, state, apiErr)
}

func (h *TimerHandler) ResetCount(c *gin.Context) {
	state, apiErr := h.timerService.ResetCount(c.Request.Context())
	writeState(c, state, apiErr)
}

func (h *TimerHandler) UpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}

	state, apiErr := h.timerService.UpdateConfig(c.Request.Context(), service.UpdateConfigInput{
		Config: model.TimerConfig{
			FocusDuration:      req.FocusDuration,
			ShortBreakDuration: req.ShortBreakDuration,
			LongBreakDuration:  req.LongBreakDuration,
			LongBreakInterval:  req.LongBreakInterval,
		},
		StatusHint: req.StatusHint,
	})
	writeState(c, state, apiErr)
}

func writeState(c *gin.Context, state *model.TimerState, apiErr *apperrors.APIError) {
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
