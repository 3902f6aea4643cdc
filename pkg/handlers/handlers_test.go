package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arnavshah/shift-planner-go/internal/testdb"
	"github.com/arnavshah/shift-planner-go/pkg/auth"
	"github.com/arnavshah/shift-planner-go/pkg/availability"
	"github.com/arnavshah/shift-planner-go/pkg/models"
	"github.com/arnavshah/shift-planner-go/pkg/scheduler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Wednesday; the submission week starts Monday 2024-06-03.
var testNow = time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)

type server struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	admin    *models.User
	employee *models.User
	adminTok string
	empTok   string
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testdb.Open(t)
	svc := auth.NewService(db, auth.NewTokens("test-secret", time.Hour), bcrypt.MinCost, nil)
	avail := availability.NewStore(db, nil)
	h := &Handler{
		Auth:      svc,
		Avail:     avail,
		Scheduler: scheduler.New(db, avail, nil, nil),
		Now:       func() time.Time { return testNow },
	}

	s := &server{t: t, db: db, router: NewRouter(h)}
	ctx := context.Background()
	var err error
	s.admin, err = svc.Register(ctx, auth.Registration{Name: "Ada", Email: "ada@example.com", Password: "adminpw", Role: models.RoleAdmin, Timezone: "UTC"})
	require.NoError(t, err)
	s.employee, err = svc.Register(ctx, auth.Registration{Name: "Erin", Email: "erin@example.com", Password: "employeepw", Role: models.RoleEmployee, Timezone: "America/New_York"})
	require.NoError(t, err)

	s.adminTok, err = svc.Tokens().CreateToken(s.admin)
	require.NoError(t, err)
	s.empTok, err = svc.Tokens().CreateToken(s.employee)
	require.NoError(t, err)
	return s
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

// submitWeekdays gives the employee Monday and Wednesday 09:00-17:00 New York.
func (s *server) submitWeekdays() {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/employee/availability", s.empTok, gin.H{
		"days":      []string{"Monday", "Wednesday"},
		"startTime": "09:00",
		"endTime":   "17:00",
		"timezone":  "America/New_York",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
}

func shiftBody(employeeID, start, end string) gin.H {
	return gin.H{
		"employeeId": employeeID,
		"date":       "2024-06-03",
		"startTime":  start,
		"endTime":    end,
		"timezone":   "America/New_York",
	}
}

func TestHealthz(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)

	reg := gin.H{"name": "Sam", "email": "sam@example.com", "password": "s3cret!", "role": "employee", "timezone": "Asia/Tokyo"}
	w := s.do(http.MethodPost, "/api/auth/register", "", reg)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodPost, "/api/auth/register", "", reg)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email_taken", errorCode(t, w))

	bad := gin.H{"name": "Kim", "email": "kim@example.com", "password": "s3cret!", "role": "employee", "timezone": "Nowhere/City"}
	w = s.do(http.MethodPost, "/api/auth/register", "", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_timezone", errorCode(t, w))

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "sam@example.com", "password": "s3cret!"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, w, &login)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "Asia/Tokyo", login.User.Timezone)

	w = s.do(http.MethodGet, "/api/employee/shifts", login.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "sam@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, w))
}

func TestAuthGuards(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/admin/shifts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/admin/shifts", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/admin/shifts", s.empTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/employee/availability", s.adminTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmitAvailability(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/employee/availability", s.empTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.submitWeekdays()

	w = s.do(http.MethodGet, "/api/employee/availability", s.empTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var windows []models.AvailabilityWindow
	decode(t, w, &windows)
	require.Len(t, windows, 2)
	assert.Equal(t, "2024-06-03", windows[0].CalendarDate)
	assert.Equal(t, "2024-06-05", windows[1].CalendarDate)
	assert.Equal(t, time.Date(2024, 6, 3, 13, 0, 0, 0, time.UTC), windows[0].StartInstant)

	w = s.do(http.MethodGet, "/api/admin/all-availability", s.adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &windows)
	require.Len(t, windows, 2)
	require.NotNil(t, windows[0].Employee)
	assert.Equal(t, "Erin", windows[0].Employee.Name)

	w = s.do(http.MethodGet, "/api/admin/availability/"+s.employee.ID, s.adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &windows)
	assert.Len(t, windows, 2)
}

func TestSubmitAvailability_Rejections(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		body gin.H
		code string
	}{
		{"too short", gin.H{"days": []string{"Monday"}, "startTime": "09:00", "endTime": "12:00", "timezone": "UTC"}, "window_too_short"},
		{"unknown day", gin.H{"days": []string{"Funday"}, "startTime": "09:00", "endTime": "17:00", "timezone": "UTC"}, "invalid_day_selection"},
		{"no days", gin.H{"days": []string{}, "startTime": "09:00", "endTime": "17:00", "timezone": "UTC"}, "invalid_day_selection"},
		{"bad zone", gin.H{"days": []string{"Monday"}, "startTime": "09:00", "endTime": "17:00", "timezone": "Mars/Olympus"}, "invalid_timezone"},
		{"bad time", gin.H{"days": []string{"Monday"}, "startTime": "9am", "endTime": "17:00", "timezone": "UTC"}, "invalid_time_format"},
		{"missing field", gin.H{"days": []string{"Monday"}, "startTime": "09:00", "timezone": "UTC"}, "invalid_request"},
		{"numeric day", gin.H{"days": []int{1}, "startTime": "09:00", "endTime": "17:00", "timezone": "UTC"}, "invalid_day_selection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/employee/availability", s.empTok, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	w := s.do(http.MethodGet, "/api/admin/all-availability", s.adminTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitAvailability_DayNamesAnyCase(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/employee/availability", s.empTok, gin.H{
		"days":      []string{"friday", "FRIDAY", " Tuesday"},
		"startTime": "09:00",
		"endTime":   "17:00",
		"timezone":  "UTC",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		Count int `json:"count"`
	}
	decode(t, w, &res)
	assert.Equal(t, 2, res.Count)
}

func TestCreateShift(t *testing.T) {
	s := newServer(t)
	s.submitWeekdays()

	w := s.do(http.MethodPost, "/api/admin/shifts", s.adminTok, shiftBody(s.employee.ID, "10:00", "14:00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Shift models.Shift `json:"shift"`
	}
	decode(t, w, &created)
	assert.Equal(t, s.admin.ID, created.Shift.CreatedByID)
	assert.Equal(t, time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC), created.Shift.StartInstant)

	w = s.do(http.MethodPost, "/api/admin/shifts", s.adminTok, shiftBody(s.employee.ID, "12:00", "16:00"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "shift_overlap", errorCode(t, w))

	w = s.do(http.MethodPost, "/api/admin/shifts", s.adminTok, shiftBody(s.employee.ID, "07:00", "11:00"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_available", errorCode(t, w))

	w = s.do(http.MethodPost, "/api/admin/shifts", s.adminTok, shiftBody(s.employee.ID, "14:00", "15:00"))
	assert.Equal(t, http.StatusCreated, w.Code, "adjacent shifts do not overlap")

	w = s.do(http.MethodPost, "/api/admin/shifts", s.adminTok, shiftBody("not-a-uuid", "10:00", "14:00"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errorCode(t, w))

	w = s.do(http.MethodPost, "/api/admin/shifts", s.adminTok, shiftBody(s.admin.ID, "10:00", "14:00"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/employee/shifts", s.empTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.Shift
	decode(t, w, &mine)
	assert.Len(t, mine, 2)

	w = s.do(http.MethodGet, "/api/admin/shifts", s.adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Shift
	decode(t, w, &all)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Employee)
	assert.Equal(t, "erin@example.com", all[0].Employee.Email)
}

func TestValidateShift(t *testing.T) {
	s := newServer(t)
	s.submitWeekdays()

	var res struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}

	w := s.do(http.MethodPost, "/api/admin/shifts/validate", s.adminTok, shiftBody(s.employee.ID, "10:00", "14:00"))
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.True(t, res.Valid)

	w = s.do(http.MethodGet, "/api/admin/shifts", s.adminTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "validation must not store the shift")

	w = s.do(http.MethodPost, "/api/admin/shifts/validate", s.adminTok, shiftBody(s.employee.ID, "18:00", "22:00"))
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.False(t, res.Valid)
	assert.Equal(t, "not_available", res.Error)

	w = s.do(http.MethodPost, "/api/admin/shifts/validate", s.adminTok, shiftBody(s.employee.ID, "14:00", "10:00"))
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.False(t, res.Valid)
	assert.Equal(t, "invalid_interval", res.Error)
}

func TestAvailableEmployees(t *testing.T) {
	s := newServer(t)
	s.submitWeekdays()

	query := func(start, end string) []models.AvailabilityWindow {
		t.Helper()
		q := url.Values{"date": {"2024-06-03"}, "start": {start}, "end": {end}, "timezone": {"America/New_York"}}
		w := s.do(http.MethodGet, "/api/admin/available-employees?"+q.Encode(), s.adminTok, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out []models.AvailabilityWindow
		decode(t, w, &out)
		return out
	}

	got := query("10:00", "14:00")
	require.Len(t, got, 1)
	assert.Equal(t, s.employee.ID, got[0].EmployeeID)
	require.NotNil(t, got[0].Employee)

	assert.Empty(t, query("16:00", "18:00"))

	w := s.do(http.MethodGet, "/api/admin/available-employees?date=2024-06-03", s.adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmployeeAvailability_BadID(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/admin/availability/12345", s.adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/admin/availability/"+s.admin.ID, s.adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestExportShiftsCSV(t *testing.T) {
	s := newServer(t)
	s.submitWeekdays()

	w := s.do(http.MethodPost, "/api/admin/shifts", s.adminTok, shiftBody(s.employee.ID, "10:00", "14:30"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/admin/shifts.csv", s.adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, shiftCSVHeader, records[0])

	row := records[1]
	assert.Equal(t, s.employee.ID, row[1])
	assert.Equal(t, "Erin", row[2])
	assert.Equal(t, "2024-06-03", row[4])
	assert.Equal(t, "2024-06-03T14:00:00Z", row[5])
	assert.Equal(t, "America/New_York", row[7])
	assert.Equal(t, "4.50", row[8])
}
