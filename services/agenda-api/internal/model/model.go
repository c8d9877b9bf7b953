package model

import "time"

// Appointment statuses. Transitions are not constrained to a state machine;
// reminders are only ever sent while an appointment is still scheduled.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Tenant struct {
	ID          string
	Name        string
	Description string
	Phone       string
	Email       string
	IsActive    bool
	CreatedAt   time.Time
}

type Customer struct {
	ID        string
	TenantID  string
	Name      string
	Phone     string
	Email     string
	Notes     string
	CreatedAt time.Time
}

type Service struct {
	ID           string
	TenantID     string
	Name         string
	Description  string
	Price        string
	DurationMins int
	IsActive     bool
	CreatedAt    time.Time
}

type Appointment struct {
	ID         string
	TenantID   string
	CustomerID string
	ServiceID  string
	StartAt    time.Time
	Notes      string
	Status     string
	CreatedAt  time.Time
}
