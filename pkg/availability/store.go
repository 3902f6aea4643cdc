// Package availability records the weekly windows in which employees can
// work and answers containment questions against them.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arnavshah/shift-planner-go/pkg/apperr"
	"github.com/arnavshah/shift-planner-go/pkg/models"
	"github.com/arnavshah/shift-planner-go/pkg/timewindow"
)

// MinWindow is the shortest availability an employee may declare for a day.
const MinWindow = 4 * time.Hour

// Store is the append-only collection of availability windows.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewStore returns a Store backed by db. A nil logger discards output.
func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// WithTx returns a Store whose queries run inside tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx, log: s.log}
}

// WeekRequest is one submission of the weekly availability form.
//
// The week is the ISO week (Monday first) containing Reference's calendar
// date in Timezone. Start and End are local wall clock times applied to each
// selected day.
type WeekRequest struct {
	EmployeeID string
	Days       []timewindow.Weekday
	Start      string
	End        string
	Timezone   string
	Reference  time.Time
}

// Build computes the windows a request would create without touching
// storage. Duplicate days collapse. Either every window is valid or an
// error is returned.
func (r WeekRequest) Build() ([]models.AvailabilityWindow, error) {
	if len(r.Days) == 0 {
		return nil, fmt.Errorf("%w: no days selected", apperr.ErrInvalidDaySelection)
	}
	for _, day := range r.Days {
		if !day.Valid() {
			return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidDaySelection, day)
		}
	}
	loc, err := timewindow.LoadLocation(r.Timezone)
	if err != nil {
		return nil, err
	}

	var seen [7]bool
	windows := make([]models.AvailabilityWindow, 0, len(r.Days))
	for _, day := range r.Days {
		if seen[day] {
			continue
		}
		seen[day] = true

		date, err := timewindow.DateInWeek(r.Reference, loc, day)
		if err != nil {
			return nil, err
		}
		start, err := timewindow.ToUTCInstant(date, r.Start, r.Timezone)
		if err != nil {
			return nil, err
		}
		end, err := timewindow.ToUTCInstant(date, r.End, r.Timezone)
		if err != nil {
			return nil, err
		}
		if end.Sub(start) < MinWindow {
			return nil, fmt.Errorf("%w: %s %s-%s is %s", apperr.ErrWindowTooShort, day, r.Start, r.End, end.Sub(start))
		}
		windows = append(windows, models.AvailabilityWindow{
			EmployeeID:   r.EmployeeID,
			CalendarDate: date,
			StartInstant: start,
			EndInstant:   end,
			Timezone:     loc.String(),
		})
	}
	return windows, nil
}

// SubmitWeek validates a weekly submission and inserts one window per
// selected day in a single transaction. It returns how many were inserted.
func (s *Store) SubmitWeek(ctx context.Context, req WeekRequest) (int, error) {
	windows, err := req.Build()
	if err != nil {
		s.log.Debug("availability rejected",
			zap.String("employee_id", req.EmployeeID),
			zap.Error(err),
		)
		return 0, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireEmployee(tx, req.EmployeeID); err != nil {
			return err
		}
		return tx.Create(&windows).Error
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNone {
			return 0, err
		}
		return 0, fmt.Errorf("insert availability: %w", err)
	}

	s.log.Info("availability submitted",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("windows", len(windows)),
		zap.String("week_of", windows[0].CalendarDate),
	)
	return len(windows), nil
}

// FindContaining returns a window of the employee on calendarDate that
// covers [start,end), or apperr.ErrNotFound.
func (s *Store) FindContaining(ctx context.Context, employeeID, calendarDate string, start, end time.Time) (*models.AvailabilityWindow, error) {
	var candidates []models.AvailabilityWindow
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND calendar_date = ?", employeeID, calendarDate).
		Order("id").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	for i := range candidates {
		w := &candidates[i]
		if timewindow.Contains(w.StartInstant, w.EndInstant, start, end) {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: no availability for %s on %s covering %s-%s",
		apperr.ErrNotFound, employeeID, calendarDate,
		start.Format(time.RFC3339), end.Format(time.RFC3339))
}

// ListFor returns the windows of one employee, or of everyone when
// employeeID is empty, in insertion order. Listing everyone includes each
// window's employee.
func (s *Store) ListFor(ctx context.Context, employeeID string) ([]models.AvailabilityWindow, error) {
	q := s.db.WithContext(ctx).Order("id")
	if employeeID != "" {
		q = q.Where("employee_id = ?", employeeID)
	} else {
		q = q.Preload("Employee")
	}
	var windows []models.AvailabilityWindow
	if err := q.Find(&windows).Error; err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return windows, nil
}

// Slot is a proposed span of work expressed in local terms.
type Slot struct {
	Date     string
	Start    string
	End      string
	Timezone string
}

// Span is a Slot resolved to UTC, with its date label and zone name in
// canonical form.
type Span struct {
	Date     string
	Timezone string
	Start    time.Time
	End      time.Time
}

// Resolve converts the slot to UTC and checks that it is non-empty.
func (sl Slot) Resolve() (Span, error) {
	loc, err := timewindow.LoadLocation(sl.Timezone)
	if err != nil {
		return Span{}, err
	}
	date, err := timewindow.ParseDate(sl.Date)
	if err != nil {
		return Span{}, err
	}
	start, err := timewindow.ToUTCInstant(sl.Date, sl.Start, sl.Timezone)
	if err != nil {
		return Span{}, err
	}
	end, err := timewindow.ToUTCInstant(sl.Date, sl.End, sl.Timezone)
	if err != nil {
		return Span{}, err
	}
	if !start.Before(end) {
		return Span{}, fmt.Errorf("%w: %s-%s", apperr.ErrInvalidInterval, sl.Start, sl.End)
	}
	return Span{
		Date:     date.Format(timewindow.DateLayout),
		Timezone: loc.String(),
		Start:    start,
		End:      end,
	}, nil
}

// FindAvailableEmployees returns, for every employee with a window on the
// slot's date covering the slot, the first such window with its Employee
// loaded. Employees appear in the order of their witnessing window.
func (s *Store) FindAvailableEmployees(ctx context.Context, slot Slot) ([]models.AvailabilityWindow, error) {
	span, err := slot.Resolve()
	if err != nil {
		return nil, err
	}
	var candidates []models.AvailabilityWindow
	err = s.db.WithContext(ctx).
		Preload("Employee").
		Where("calendar_date = ?", span.Date).
		Order("id").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}

	seen := make(map[string]bool)
	var out []models.AvailabilityWindow
	for _, w := range candidates {
		if seen[w.EmployeeID] || !timewindow.Contains(w.StartInstant, w.EndInstant, span.Start, span.End) {
			continue
		}
		seen[w.EmployeeID] = true
		out = append(out, w)
	}
	return out, nil
}

func requireEmployee(tx *gorm.DB, employeeID string) error {
	var u models.User
	err := tx.Select("id", "role").Where("id = ?", employeeID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: employee %s", apperr.ErrNotFound, employeeID)
	}
	if err != nil {
		return fmt.Errorf("lookup employee: %w", err)
	}
	if u.Role != models.RoleEmployee {
		return fmt.Errorf("%w: %s is not an employee", apperr.ErrNotFound, employeeID)
	}
	return nil
}
