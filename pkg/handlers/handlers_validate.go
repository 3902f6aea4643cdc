package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ValidateShift runs a shift request through every check CreateShift
// would, without storing anything.
func (h *Handler) ValidateShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid":   false,
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	err := h.Scheduler.CheckShift(c.Request.Context(), req.proposal(callerID(c)))
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"valid": true})
		return
	}

	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":   false,
		"error":   code,
		"message": err.Error(),
	})
}
