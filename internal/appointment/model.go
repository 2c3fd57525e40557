package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus canonicalizes a caller-supplied status string. Input is
// case-insensitive; stored values are always lowercase. Any of the four
// canonical values is accepted regardless of the appointment's current
// status: there is no transition graph.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return s, nil
	}
	return "", fmt.Errorf("%q is not a valid status (allowed: pending, confirmed, cancelled, completed): %w", raw, ErrInvalidStatus)
}

// TimeOfDay is a clock time with second precision, stored as seconds since
// midnight. Appointments carry the calendar date and the time of day as
// separate values.
type TimeOfDay int

func NewTimeOfDay(hour, min, sec int) TimeOfDay {
	return TimeOfDay(hour*3600 + min*60 + sec)
}

// ParseTimeOfDay accepts "15:04:05" or "15:04".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q, expected HH:MM or HH:MM:SS", raw)
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) / 60 % 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Business window within which appointments may be scheduled, inclusive on
// both ends.
var (
	BusinessDayStart = NewTimeOfDay(8, 0, 0)
	BusinessDayEnd   = NewTimeOfDay(20, 0, 0)
)

// InBusinessHours reports whether t falls inside the bookable window.
func (t TimeOfDay) InBusinessHours() bool {
	return t >= BusinessDayStart && t <= BusinessDayEnd
}

// DateOnly strips the time-of-day component, leaving a UTC calendar date.
// All appointment dates pass through here before comparison or storage.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	PhysicianID uuid.UUID
	Date        time.Time // calendar date, midnight UTC
	Time        TimeOfDay
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patient is the read view the scheduling engine needs from the directory:
// enough to confirm existence and label responses.
type Patient struct {
	ID   uuid.UUID
	Name string
}

type Physician struct {
	ID        uuid.UUID
	Name      string
	Specialty string
}

// AppointmentDetail is an appointment hydrated with the names of both
// parties, as returned by reads and listings.
type AppointmentDetail struct {
	Appointment
	PatientName        string
	PhysicianName      string
	PhysicianSpecialty string
}

// Filter narrows ListFiltered results. All fields are optional and combine
// with AND; the date range is inclusive on both ends.
type Filter struct {
	PatientID   *uuid.UUID
	PhysicianID *uuid.UUID
	DateFrom    *time.Time
	DateTo      *time.Time
	Status      *Status
}

// Patch carries the mutable booking fields of an update request. Nil fields
// keep their stored values; the conflict re-check runs against the merged
// result.
type Patch struct {
	PhysicianID *uuid.UUID
	Date        *time.Time
	Time        *TimeOfDay
}

func (p Patch) touchesSlot() bool {
	return p.PhysicianID != nil || p.Date != nil || p.Time != nil
}
