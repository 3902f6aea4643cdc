package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/shift-planner-go/pkg/availability"
	"github.com/arnavshah/shift-planner-go/pkg/timewindow"
)

type availabilityRequest struct {
	Days      []timewindow.Weekday `json:"days" binding:"required"`
	StartTime string               `json:"startTime" binding:"required"`
	EndTime   string               `json:"endTime" binding:"required"`
	Timezone  string               `json:"timezone" binding:"required"`
}

// SubmitAvailability records the caller's availability for the current week.
func (h *Handler) SubmitAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	n, err := h.Avail.SubmitWeek(c.Request.Context(), availability.WeekRequest{
		EmployeeID: callerID(c),
		Days:       req.Days,
		Start:      req.StartTime,
		End:        req.EndTime,
		Timezone:   req.Timezone,
		Reference:  h.Now(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Availability added successfully for selected days.",
		"count":   n,
	})
}

// MyAvailability lists the caller's availability windows.
func (h *Handler) MyAvailability(c *gin.Context) {
	windows, err := h.Avail.ListFor(c.Request.Context(), callerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(windows) == 0 {
		abort(c, http.StatusNotFound, "not_found", "No availability found.")
		return
	}
	c.JSON(http.StatusOK, windows)
}

// MyShifts lists the shifts assigned to the caller.
func (h *Handler) MyShifts(c *gin.Context) {
	shifts, err := h.Scheduler.ListShifts(c.Request.Context(), callerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(shifts) == 0 {
		abort(c, http.StatusNotFound, "not_found", "No shifts assigned.")
		return
	}
	c.JSON(http.StatusOK, shifts)
}
