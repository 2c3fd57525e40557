package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role (allowed: patient, admin, physician)")
)

// Service manages patient and physician identity records. Scheduling rules
// live elsewhere; this layer only guards uniqueness, credentials and
// referential integrity.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type NewPatient struct {
	Name       string
	NationalID string
	Phone      *string
	Email      string
	Password   string
}

// RegisterPatient creates a patient with a bcrypt-hashed credential. The
// national identity code and email must be unused; the database's unique
// constraints back up these pre-checks.
func (s *Service) RegisterPatient(ctx context.Context, in NewPatient) (*Patient, error) {
	taken, err := s.repo.PatientNationalIDExists(ctx, in.NationalID)
	if err != nil {
		return nil, fmt.Errorf("check national id: %w", err)
	}
	if taken {
		return nil, ErrNationalIDTaken
	}

	taken, err = s.repo.PatientEmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.CreatePatient(ctx, &Patient{
		Name:         in.Name,
		NationalID:   in.NationalID,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         RolePatient,
	})
}

type PatientPatch struct {
	Name     *string
	Phone    *string
	Email    *string
	Password *string
}

// UpdatePatient applies a partial profile update. An email change re-checks
// uniqueness; a password change re-hashes. The national identity code is
// immutable.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, patch PatientPatch) (*Patient, error) {
	patient, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		patient.Name = *patch.Name
	}
	if patch.Phone != nil {
		patient.Phone = patch.Phone
	}
	if patch.Email != nil && *patch.Email != patient.Email {
		taken, err := s.repo.PatientEmailExists(ctx, *patch.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return nil, ErrEmailTaken
		}
		patient.Email = *patch.Email
	}
	if patch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patient.PasswordHash = string(hash)
	}

	return s.repo.UpdatePatient(ctx, patient)
}

// DeletePatient hard-removes a patient. The store rejects deletion while
// appointments reference the record, surfaced as ErrPatientHasAppointments.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.DeletePatient(ctx, id)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	return s.repo.ListPatients(ctx)
}

// Authenticate verifies an email/password pair. Both an unknown email and a
// bad password report the same error so callers cannot probe for accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Patient, error) {
	patient, err := s.repo.GetPatientByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(patient.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return patient, nil
}

// ChangeRole assigns one of the known roles to a patient account.
func (s *Service) ChangeRole(ctx context.Context, id uuid.UUID, raw string) (*Patient, error) {
	role := Role(raw)
	switch role {
	case RolePatient, RoleAdmin, RolePhysician:
	default:
		return nil, fmt.Errorf("%q: %w", raw, ErrInvalidRole)
	}

	patient, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patient.Role = role
	return s.repo.UpdatePatient(ctx, patient)
}

func (s *Service) CreatePhysician(ctx context.Context, name, specialty string) (*Physician, error) {
	return s.repo.CreatePhysician(ctx, &Physician{Name: name, Specialty: specialty})
}

type PhysicianPatch struct {
	Name      *string
	Specialty *string
}

func (s *Service) UpdatePhysician(ctx context.Context, id uuid.UUID, patch PhysicianPatch) (*Physician, error) {
	physician, err := s.repo.GetPhysicianByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		physician.Name = *patch.Name
	}
	if patch.Specialty != nil {
		physician.Specialty = *patch.Specialty
	}

	return s.repo.UpdatePhysician(ctx, physician)
}

func (s *Service) DeletePhysician(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.DeletePhysician(ctx, id)
}

func (s *Service) GetPhysician(ctx context.Context, id uuid.UUID) (*Physician, error) {
	return s.repo.GetPhysicianByID(ctx, id)
}

func (s *Service) ListPhysicians(ctx context.Context) ([]Physician, error) {
	return s.repo.ListPhysicians(ctx)
}
