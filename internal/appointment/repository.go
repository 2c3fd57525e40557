package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrPhysicianNotFound   = errors.New("physician not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned either by the service's conflict pre-check or
	// by the storage layer when the partial unique index over
	// (physician_id, date, time_of_day) rejects a racing write.
	ErrSlotTaken = errors.New("physician already has an appointment at that date and time")
)

// Repository contains all store interactions needed by the scheduling
// service: directory reads for existence checks and the appointment store
// proper.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetPhysicianByID(ctx context.Context, id uuid.UUID) (*Physician, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)

	// HasConflict reports whether a non-cancelled appointment already holds
	// the (physician, date, time) slot. excludeID removes an appointment's
	// own row from the scan during updates.
	HasConflict(ctx context.Context, physicianID uuid.UUID, date time.Time, tod TimeOfDay, excludeID *uuid.UUID) (bool, error)

	// CreateAppointment inserts a new pending appointment. Returns
	// ErrSlotTaken if the store-level uniqueness constraint rejects it.
	CreateAppointment(ctx context.Context, patientID, physicianID uuid.UUID, date time.Time, tod TimeOfDay) (*Appointment, error)

	// UpdateAppointment persists physician, date, time and status of an
	// existing row. Returns ErrSlotTaken on a constraint violation.
	UpdateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error)

	// UpdateStatus is a compare-and-set used by the completion worker so it
	// never overwrites a status that changed underneath it.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// DeleteAppointment hard-removes a row and reports whether it existed.
	DeleteAppointment(ctx context.Context, id uuid.UUID) (bool, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error)
	ListByPhysician(ctx context.Context, physicianID uuid.UUID) ([]AppointmentDetail, error)
	ListFiltered(ctx context.Context, f Filter) ([]AppointmentDetail, error)

	// FindElapsed returns pending or confirmed appointments whose scheduled
	// date and time lie in the past relative to now.
	FindElapsed(ctx context.Context, now time.Time) ([]Appointment, error)
}
