package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "tictask/backend/internal/errors"
	"tictask/backend/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) List(c *gin.Context) {
	query := service.HistoryQuery{
		From:   c.Query("from"),
		To:     c.Query("to"),
		TaskID: c.Query("taskId"),
	}
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			writeError(c, apperrors.InvalidField("invalid_limit", "limit", "limit must be a number"))
			return
		}
		// An explicit limit must be positive; only an absent one takes the default.
		if parsed < 1 {
			writeError(c, apperrors.InvalidField("invalid_limit", "limit", "limit must be between 1 and 500, or omitted for the default of 50"))
			return
		}
		query.Limit = parsed
	}

	sessions, apiErr := h.sessionService.History(c.Request.Context(), query)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
