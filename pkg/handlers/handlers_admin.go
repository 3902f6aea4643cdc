package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arnavshah/shift-planner-go/pkg/availability"
	"github.com/arnavshah/shift-planner-go/pkg/models"
	"github.com/arnavshah/shift-planner-go/pkg/scheduler"
)

// AllAvailability lists every availability window with its employee.
func (h *Handler) AllAvailability(c *gin.Context) {
	windows, err := h.Avail.ListFor(c.Request.Context(), "")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(windows) == 0 {
		abort(c, http.StatusNotFound, "not_found", "No availability records found.")
		return
	}
	c.JSON(http.StatusOK, windows)
}

// EmployeeAvailability lists one employee's windows. An employee without
// windows yields an empty list.
func (h *Handler) EmployeeAvailability(c *gin.Context) {
	employeeID := c.Param("employeeId")
	if _, err := uuid.Parse(employeeID); err != nil {
		abort(c, http.StatusBadRequest, "invalid_request", "Invalid employeeId format")
		return
	}

	windows, err := h.Avail.ListFor(c.Request.Context(), employeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if windows == nil {
		windows = []models.AvailabilityWindow{}
	}
	c.JSON(http.StatusOK, windows)
}

type slotQuery struct {
	Date     string `form:"date" binding:"required"`
	Start    string `form:"start" binding:"required"`
	End      string `form:"end" binding:"required"`
	Timezone string `form:"timezone" binding:"required"`
}

// AvailableEmployees lists employees whose availability covers the slot.
func (h *Handler) AvailableEmployees(c *gin.Context) {
	var q slotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	windows, err := h.Avail.FindAvailableEmployees(c.Request.Context(), availability.Slot{
		Date:     q.Date,
		Start:    q.Start,
		End:      q.End,
		Timezone: q.Timezone,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if windows == nil {
		windows = []models.AvailabilityWindow{}
	}
	c.JSON(http.StatusOK, windows)
}

type shiftRequest struct {
	EmployeeID string `json:"employeeId" binding:"required,uuid"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"startTime" binding:"required"`
	EndTime    string `json:"endTime" binding:"required"`
	Timezone   string `json:"timezone" binding:"required"`
}

func (r shiftRequest) proposal(adminID string) scheduler.Proposal {
	return scheduler.Proposal{
		AdminID:    adminID,
		EmployeeID: r.EmployeeID,
		Slot: availability.Slot{
			Date:     r.Date,
			Start:    r.StartTime,
			End:      r.EndTime,
			Timezone: r.Timezone,
		},
	}
}

// CreateShift assigns an employee to a shift.
func (h *Handler) CreateShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	shift, err := h.Scheduler.ProposeShift(c.Request.Context(), req.proposal(callerID(c)))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Shift created successfully",
		"shift":   shift,
	})
}

// AllShifts lists every shift with its employee.
func (h *Handler) AllShifts(c *gin.Context) {
	shifts, err := h.Scheduler.ListShifts(c.Request.Context(), "")
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
