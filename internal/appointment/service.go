package appointment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/medcita/appointment-scheduling/internal/redisclient"
)

var (
	ErrPastDate             = errors.New("appointment date must be after today")
	ErrOutsideBusinessHours = errors.New("appointment time must be between 08:00 and 20:00")
	ErrInvalidStatus        = errors.New("invalid appointment status")

	// ErrSlotBeingBooked means another request currently holds the lock for
	// the same slot; the caller may retry.
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

// Service is the scheduling engine. It is stateless between calls: every
// operation re-reads store state, and the no-double-booking invariant is
// ultimately enforced by the store's unique constraint, with the in-process
// conflict check and the per-slot lock acting as fast-path rejection.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		now:    time.Now,
	}
}

// WithClock overrides the reference clock used for the future-date rule.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func slotKey(physicianID uuid.UUID, date time.Time, tod TimeOfDay) string {
	return fmt.Sprintf("%s:%s:%s", physicianID, DateOnly(date).Format("2006-01-02"), tod)
}

// "Today" is the calendar date at call time; booking on the current date is
// rejected.
func (s *Service) validateDate(date time.Time) error {
	if !DateOnly(date).After(DateOnly(s.now())) {
		return fmt.Errorf("date %s is not after today: %w", DateOnly(date).Format("2006-01-02"), ErrPastDate)
	}
	return nil
}

func validateTime(tod TimeOfDay) error {
	if !tod.InBusinessHours() {
		return fmt.Errorf("time %s is outside business hours: %w", tod, ErrOutsideBusinessHours)
	}
	return nil
}

// Book validates a proposed appointment and inserts it with status pending.
// Checks run in order, each short-circuiting, and nothing is written until
// all of them pass.
func (s *Service) Book(ctx context.Context, patientID, physicianID uuid.UUID, date time.Time, tod TimeOfDay) (*Appointment, error) {
	if _, err := s.repo.GetPhysicianByID(ctx, physicianID); err != nil {
		if errors.Is(err, ErrPhysicianNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load physician: %w", err)
	}

	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if err := s.validateDate(date); err != nil {
		return nil, err
	}
	if err := validateTime(tod); err != nil {
		return nil, err
	}

	var created *Appointment

	err := s.locker.WithSlotLock(ctx, slotKey(physicianID, date, tod), func(lockCtx context.Context) error {
		taken, err := s.repo.HasConflict(lockCtx, physicianID, date, tod, nil)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("physician %s at %s %s: %w", physicianID, DateOnly(date).Format("2006-01-02"), tod, ErrSlotTaken)
		}

		appt, err := s.repo.CreateAppointment(lockCtx, patientID, physicianID, date, tod)
		if err != nil {
			return err
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// Update applies a partial patch to an appointment. Present fields are
// validated one by one; when any of physician, date or time changes, the
// conflict check re-runs against the merged effective slot, excluding the
// appointment's own row.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if patch.PhysicianID != nil {
		if _, err := s.repo.GetPhysicianByID(ctx, *patch.PhysicianID); err != nil {
			if errors.Is(err, ErrPhysicianNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("load physician: %w", err)
		}
		appt.PhysicianID = *patch.PhysicianID
	}

	if patch.Date != nil {
		if err := s.validateDate(*patch.Date); err != nil {
			return nil, err
		}
		appt.Date = DateOnly(*patch.Date)
	}

	if patch.Time != nil {
		if err := validateTime(*patch.Time); err != nil {
			return nil, err
		}
		appt.Time = *patch.Time
	}

	if !patch.touchesSlot() {
		return s.repo.UpdateAppointment(ctx, appt)
	}

	var updated *Appointment

	err = s.locker.WithSlotLock(ctx, slotKey(appt.PhysicianID, appt.Date, appt.Time), func(lockCtx context.Context) error {
		taken, err := s.repo.HasConflict(lockCtx, appt.PhysicianID, appt.Date, appt.Time, &appt.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("physician %s at %s %s: %w", appt.PhysicianID, appt.Date.Format("2006-01-02"), appt.Time, ErrSlotTaken)
		}

		updated, err = s.repo.UpdateAppointment(lockCtx, appt)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return updated, nil
}

// ChangeStatus sets an appointment's status after a membership check. Any
// canonical value may follow any other; cancelling frees the slot for
// rebooking because the conflict scan skips cancelled rows.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, raw string) (*Appointment, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	appt.Status = status
	return s.repo.UpdateAppointment(ctx, appt)
}

// Delete hard-removes an appointment. It reports found/not-found as a
// boolean rather than an error; the record is gone, not cancelled.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.DeleteAppointment(ctx, id)
}

// Get retrieves a fully hydrated appointment by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	return s.repo.GetAppointmentDetail(ctx, id)
}

// ListByPatient returns the patient's appointments, most recent slot first.
// Unlike ListFiltered, an unknown patient id is an error.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListByPhysician(ctx context.Context, physicianID uuid.UUID) ([]AppointmentDetail, error) {
	if _, err := s.repo.GetPhysicianByID(ctx, physicianID); err != nil {
		if errors.Is(err, ErrPhysicianNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load physician: %w", err)
	}
	return s.repo.ListByPhysician(ctx, physicianID)
}

// ListFiltered applies the optional conjunctive filters. Ids that resolve to
// nothing simply narrow the result set; there is no existence pre-check
// here, deliberately mirroring the by-patient/by-physician asymmetry.
func (s *Service) ListFiltered(ctx context.Context, f Filter) ([]AppointmentDetail, error) {
	return s.repo.ListFiltered(ctx, f)
}

// CompleteElapsed marks pending and confirmed appointments whose scheduled
// slot has passed as completed. Intended to be called periodically by the
// completion worker. The compare-and-set update skips rows whose status
// changed since the scan.
func (s *Service) CompleteElapsed(ctx context.Context) (int, error) {
	elapsed, err := s.repo.FindElapsed(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("find elapsed appointments: %w", err)
	}

	completed := 0
	for _, appt := range elapsed {
		_, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, StatusCompleted)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				continue
			}
			log.Printf("failed to complete appointment %s: %v", appt.ID, err)
			continue
		}
		completed++
	}

	return completed, nil
}
