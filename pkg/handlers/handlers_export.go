package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/shift-planner-go/pkg/models"
)

var shiftCSVHeader = []string{
	"shift_id", "employee_id", "employee_name", "employee_email",
	"date", "start", "end", "timezone", "duration_hours",
}

// ExportShiftsCSV renders every shift as CSV, one row per shift.
func (h *Handler) ExportShiftsCSV(c *gin.Context) {
	shifts, err := h.Scheduler.ListShifts(c.Request.Context(), "")
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shifts.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(shiftCSVHeader); err != nil {
		h.Log.Sugar().Warnw("csv export aborted", "error", err)
		return
	}
	for _, sh := range shifts {
		if err := w.Write(shiftRecord(sh)); err != nil {
			h.Log.Sugar().Warnw("csv export aborted", "error", err)
			return
		}
	}
	w.Flush()
}

func shiftRecord(sh models.Shift) []string {
	var name, email string
	if sh.Employee != nil {
		name, email = sh.Employee.Name, sh.Employee.Email
	}
	return []string{
		sh.ID,
		sh.EmployeeID,
		name,
		email,
		sh.CalendarDate,
		sh.StartInstant.Format(time.RFC3339),
		sh.EndInstant.Format(time.RFC3339),
		sh.Timezone,
		fmt.Sprintf("%.2f", sh.EndInstant.Sub(sh.StartInstant).Hours()),
	}
}
