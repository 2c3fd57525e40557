package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrPhysicianNotFound = errors.New("physician not found")

	ErrNationalIDTaken = errors.New("national identity code is already registered")
	ErrEmailTaken      = errors.New("email is already registered")

	// Returned when a delete is blocked by appointments still referencing
	// the record (ON DELETE RESTRICT).
	ErrPatientHasAppointments   = errors.New("patient still has appointments")
	ErrPhysicianHasAppointments = errors.New("physician still has appointments")
)

type Repository interface {
	CreatePatient(ctx context.Context, p *Patient) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*Patient, error)
	PatientEmailExists(ctx context.Context, email string) (bool, error)
	PatientNationalIDExists(ctx context.Context, nationalID string) (bool, error)
	UpdatePatient(ctx context.Context, p *Patient) (*Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) (bool, error)
	ListPatients(ctx context.Context) ([]Patient, error)

	CreatePhysician(ctx context.Context, p *Physician) (*Physician, error)
	GetPhysicianByID(ctx context.Context, id uuid.UUID) (*Physician, error)
	UpdatePhysician(ctx context.Context, p *Physician) (*Physician, error)
	DeletePhysician(ctx context.Context, id uuid.UUID) (bool, error)
	ListPhysicians(ctx context.Context) ([]Physician, error)
}
