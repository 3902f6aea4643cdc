// Package scheduler assigns employees to shifts. A shift is committed only
// when the employee declared availability covering it and it does not
// overlap any of the employee's existing shifts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/shift-planner-go/pkg/apperr"
	"github.com/arnavshah/shift-planner-go/pkg/availability"
	"github.com/arnavshah/shift-planner-go/pkg/models"
	"github.com/arnavshah/shift-planner-go/pkg/timewindow"
)

// conflictSpan is how many days either side of a shift's date are scanned
// for overlaps. One instant carries local labels up to two days apart
// between UTC-12 and UTC+14.
const conflictSpan = 2

// Scheduler validates and commits shifts.
type Scheduler struct {
	db     *gorm.DB
	avail  *availability.Store
	locker Locker
	log    *zap.Logger
}

// New returns a Scheduler. A nil locker means a process-local MemoryLocker
// and a nil logger discards output.
func New(db *gorm.DB, avail *availability.Store, locker Locker, log *zap.Logger) *Scheduler {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{db: db, avail: avail, locker: locker, log: log}
}

// Proposal asks for EmployeeID to work the slot, on behalf of AdminID.
type Proposal struct {
	AdminID    string
	EmployeeID string
	availability.Slot
}

// ProposeShift runs the proposal through parsing, the availability gate and
// the conflict gate, then stores it. The gates and the insert run under a
// per-employee lock inside one transaction, so two overlapping proposals
// for the same employee cannot both commit.
func (s *Scheduler) ProposeShift(ctx context.Context, p Proposal) (*models.Shift, error) {
	span, err := p.Resolve()
	if err != nil {
		s.rejected(p, err)
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lockKey(p.EmployeeID))
	if err != nil {
		return nil, fmt.Errorf("lock employee %s: %w", p.EmployeeID, err)
	}
	defer unlock()

	shift := &models.Shift{
		CreatedByID:  p.AdminID,
		EmployeeID:   p.EmployeeID,
		CalendarDate: span.Date,
		StartInstant: span.Start,
		EndInstant:   span.End,
		Timezone:     span.Timezone,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, p.EmployeeID, span, true); err != nil {
			return err
		}
		if err := tx.Create(shift).Error; err != nil {
			return fmt.Errorf("insert shift: %w", err)
		}
		return nil
	})
	if err != nil {
		s.rejected(p, err)
		return nil, err
	}

	s.log.Info("shift created",
		zap.String("shift_id", shift.ID),
		zap.String("employee_id", shift.EmployeeID),
		zap.String("admin_id", shift.CreatedByID),
		zap.String("date", shift.CalendarDate),
		zap.Time("start", shift.StartInstant),
		zap.Time("end", shift.EndInstant),
	)
	return shift, nil
}

// CheckShift reports the outcome ProposeShift would have right now without
// storing anything.
func (s *Scheduler) CheckShift(ctx context.Context, p Proposal) error {
	span, err := p.Resolve()
	if err != nil {
		return err
	}
	return s.validate(ctx, s.db.WithContext(ctx), p.EmployeeID, span, false)
}

func (s *Scheduler) validate(ctx context.Context, tx *gorm.DB, employeeID string, span availability.Span, lockRow bool) error {
	if err := loadEmployee(tx, employeeID, lockRow); err != nil {
		return err
	}

	if _, err := s.avail.WithTx(tx).FindContaining(ctx, employeeID, span.Date, span.Start, span.End); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: %s on %s %s-%s", apperr.ErrNotAvailable, employeeID, span.Date,
				span.Start.Format(time.RFC3339), span.End.Format(time.RFC3339))
		}
		return err
	}

	existing, err := nearbyShifts(tx, employeeID, span.Date)
	if err != nil {
		return err
	}
	for _, sh := range existing {
		if timewindow.Overlaps(sh.StartInstant, sh.EndInstant, span.Start, span.End) {
			return fmt.Errorf("%w: conflicts with shift %s", apperr.ErrShiftOverlap, sh.ID)
		}
	}
	return nil
}

// lockKey names the per-employee lock shared by every proposal for that
// employee.
func lockKey(employeeID string) string {
	return "employee:" + employeeID
}

// loadEmployee checks that id names an employee. With lockRow the row is
// locked until the transaction ends (a no-op on SQLite, which serializes
// writers anyway).
func loadEmployee(tx *gorm.DB, id string, lockRow bool) error {
	q := tx.Select("id", "role")
	if lockRow {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var u models.User
	err := q.Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: employee %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("lookup employee: %w", err)
	}
	if u.Role != models.RoleEmployee {
		return fmt.Errorf("%w: %s is not an employee", apperr.ErrNotFound, id)
	}
	return nil
}

func nearbyShifts(tx *gorm.DB, employeeID, date string) ([]models.Shift, error) {
	from, err := timewindow.AddDays(date, -conflictSpan)
	if err != nil {
		return nil, err
	}
	to, err := timewindow.AddDays(date, conflictSpan)
	if err != nil {
		return nil, err
	}
	var shifts []models.Shift
	err = tx.Where("employee_id = ? AND calendar_date BETWEEN ? AND ?", employeeID, from, to).
		Order("id").
		Find(&shifts).Error
	if err != nil {
		return nil, fmt.Errorf("query shifts: %w", err)
	}
	return shifts, nil
}

// ListShifts returns the shifts of one employee, or of everyone when
// employeeID is empty, in insertion order. Listing everyone includes each
// shift's employee.
func (s *Scheduler) ListShifts(ctx context.Context, employeeID string) ([]models.Shift, error) {
	q := s.db.WithContext(ctx).Order("id")
	if employeeID != "" {
		q = q.Where("employee_id = ?", employeeID)
	} else {
		q = q.Preload("Employee")
	}
	var shifts []models.Shift
	if err := q.Find(&shifts).Error; err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

func (s *Scheduler) rejected(p Proposal, err error) {
	s.log.Debug("shift rejected",
		zap.String("employee_id", p.EmployeeID),
		zap.String("date", p.Date),
		zap.String("kind", string(apperr.KindOf(err))),
		zap.Error(err),
	)
}
