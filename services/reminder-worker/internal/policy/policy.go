// Package policy decides whether a reminder is due for an appointment.
// It is pure: the caller supplies the current time, and each lead time is
// judged independently of the others.
package policy

import "time"

type Outcome int

const (
	NotDue Outcome = iota
	Due
	AlreadySent
	Ineligible
)

func (o Outcome) String() string {
	switch o {
	case NotDue:
		return "not_due"
	case Due:
		return "due"
	case AlreadySent:
		return "already_sent"
	case Ineligible:
		return "ineligible"
	}
	return "unknown"
}

// Candidate is an appointment joined with its customer and service, plus the
// lead times whose reminders were already dispatched.
type Candidate struct {
	TenantID      string
	AppointmentID string
	StartAt       time.Time
	Status        string
	Notes         string
	CustomerName  string
	CustomerPhone string
	ServiceName   string
	Sent          map[time.Duration]time.Time
}

const statusScheduled = "scheduled"

// Eligible reports whether the candidate may receive reminders at all:
// still scheduled, customer resolved with a phone, service resolved.
func (c Candidate) Eligible() bool {
	return c.Status == statusScheduled && c.CustomerPhone != "" && c.CustomerName != "" && c.ServiceName != ""
}

// Evaluate classifies one candidate for one lead time.
//
// Due means now < start <= now+lead and no marker exists for this lead time.
// A dispatched 24h reminder has no bearing on the 1h window and vice versa.
func Evaluate(now time.Time, c Candidate, lead time.Duration) Outcome {
	if !c.Eligible() {
		return Ineligible
	}
	if !c.StartAt.After(now) || c.StartAt.After(now.Add(lead)) {
		return NotDue
	}
	if _, ok := c.Sent[lead]; ok {
		return AlreadySent
	}
	return Due
}

// DueLeadTimes sweeps all configured lead times and returns those due now.
func DueLeadTimes(now time.Time, c Candidate, leads []time.Duration) []time.Duration {
	var due []time.Duration
	for _, lead := range leads {
		if Evaluate(now, c, lead) == Due {
			due = append(due, lead)
		}
	}
	return due
}
