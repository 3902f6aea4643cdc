package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role separates the people who assign shifts from the people who work them.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleEmployee }

// User is an account. Timezone is the user's home IANA zone.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(16);index;not null" json:"role"`
	Timezone     string    `gorm:"not null" json:"timezone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// newOrderedID returns a time-ordered UUID so that sorting by primary key
// yields insertion order.
func newOrderedID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// AvailabilityWindow is a span during which an employee declared they can
// work. CalendarDate is the employee's local day; the instants are UTC and
// are the only thing comparisons look at.
type AvailabilityWindow struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	EmployeeID   string    `gorm:"type:varchar(36);index:idx_availability_employee_date;not null" json:"employee_id"`
	Employee     *User     `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	CalendarDate string    `gorm:"type:varchar(10);index:idx_availability_employee_date;not null" json:"date"`
	StartInstant time.Time `gorm:"not null" json:"start_time"`
	EndInstant   time.Time `gorm:"not null" json:"end_time"`
	Timezone     string    `gorm:"not null" json:"timezone"`
	CreatedAt    time.Time `json:"created_at"`
}

func (w *AvailabilityWindow) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = newOrderedID()
	}
	w.StartInstant = w.StartInstant.UTC()
	w.EndInstant = w.EndInstant.UTC()
	return nil
}

func (w *AvailabilityWindow) AfterFind(tx *gorm.DB) error {
	w.StartInstant = w.StartInstant.UTC()
	w.EndInstant = w.EndInstant.UTC()
	return nil
}

// Duration is the length of the window.
func (w AvailabilityWindow) Duration() time.Duration {
	return w.EndInstant.Sub(w.StartInstant)
}

// Shift is a committed assignment of an employee to a span of time.
// Timezone is the zone the shift was authored in, not necessarily the
// employee's.
type Shift struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedByID  string    `gorm:"type:varchar(36);not null" json:"admin_id"`
	EmployeeID   string    `gorm:"type:varchar(36);index:idx_shift_employee_date;not null" json:"employee_id"`
	Employee     *User     `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	CalendarDate string    `gorm:"type:varchar(10);index:idx_shift_employee_date;not null" json:"date"`
	StartInstant time.Time `gorm:"not null" json:"start_time"`
	EndInstant   time.Time `gorm:"not null" json:"end_time"`
	Timezone     string    `gorm:"not null" json:"timezone"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Shift) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newOrderedID()
	}
	s.StartInstant = s.StartInstant.UTC()
	s.EndInstant = s.EndInstant.UTC()
	return nil
}

func (s *Shift) AfterFind(tx *gorm.DB) error {
	s.StartInstant = s.StartInstant.UTC()
	s.EndInstant = s.EndInstant.UTC()
	return nil
}
