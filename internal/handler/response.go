package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "tictask/backend/internal/errors"
)

type errorEnvelope struct {
	Error *apperrors.APIError `json:"error"`
}

// writeError renders apiErr as {"error": {...}} and attaches it to the
// context so the request logger reports it.
func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}
	_ = c.Error(apiErr)
	c.AbortWithStatusJSON(apiErr.Status, errorEnvelope{Error: apiErr})
}
