package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcita/appointment-scheduling/internal/redisclient"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *MemoryRepository, Patient, Physician) {
	t.Helper()

	repo := NewMemoryRepository()
	patient := Patient{ID: uuid.New(), Name: "Ana Torres"}
	physician := Physician{ID: uuid.New(), Name: "Luis Mendoza", Specialty: "Cardiology"}
	repo.AddPatient(patient)
	repo.AddPhysician(physician)

	svc := NewService(repo, redisclient.NopLocker{}).WithClock(func() time.Time { return testNow })
	return svc, repo, patient, physician
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBook_CreatesPendingAppointment(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, patient.ID, appt.PatientID)
	assert.Equal(t, physician.ID, appt.PhysicianID)

	// Round-trip: fetching immediately returns the same booking.
	got, err := svc.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.PatientID, got.PatientID)
	assert.Equal(t, appt.PhysicianID, got.PhysicianID)
	assert.True(t, got.Date.Equal(date(2025, 6, 10)))
	assert.Equal(t, NewTimeOfDay(9, 0, 0), got.Time)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "Ana Torres", got.PatientName)
	assert.Equal(t, "Luis Mendoza", got.PhysicianName)
	assert.Equal(t, "Cardiology", got.PhysicianSpecialty)
}

func TestBook_UnknownParties(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, patient.ID, uuid.New(), date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	assert.ErrorIs(t, err, ErrPhysicianNotFound)

	_, err = svc.Book(ctx, uuid.New(), physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestBook_DateValidation(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		date    time.Time
		wantErr error
	}{
		{"yesterday", date(2025, 5, 31), ErrPastDate},
		{"today", date(2025, 6, 1), ErrPastDate},
		{"today late hour still rejected", time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC), ErrPastDate},
		{"tomorrow", date(2025, 6, 2), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(ctx, patient.ID, physician.ID, tc.date, NewTimeOfDay(10, 0, 0))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBook_BusinessHours(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		tod     TimeOfDay
		wantErr error
	}{
		{"before opening", NewTimeOfDay(7, 59, 59), ErrOutsideBusinessHours},
		{"at opening", NewTimeOfDay(8, 0, 0), nil},
		{"midday", NewTimeOfDay(13, 30, 0), nil},
		{"at closing", NewTimeOfDay(20, 0, 0), nil},
		{"after closing", NewTimeOfDay(20, 0, 1), ErrOutsideBusinessHours},
		{"late evening", NewTimeOfDay(21, 0, 0), ErrOutsideBusinessHours},
	}

	day := date(2025, 6, 10)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(ctx, patient.ID, physician.ID, day, tc.tod)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			day = day.AddDate(0, 0, 1) // fresh slot per case
		})
	}
}

func TestBook_ConflictAndCancelFreesSlot(t *testing.T) {
	svc, repo, patient, physician := newTestService(t)
	ctx := context.Background()

	other := Patient{ID: uuid.New(), Name: "Jorge Silva"}
	repo.AddPatient(other)

	slotDate, slotTime := date(2025, 6, 10), NewTimeOfDay(9, 0, 0)

	first, err := svc.Book(ctx, patient.ID, physician.ID, slotDate, slotTime)
	require.NoError(t, err)

	// Same physician, same slot: rejected.
	_, err = svc.Book(ctx, other.ID, physician.ID, slotDate, slotTime)
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Cancelling the first appointment frees the slot.
	_, err = svc.ChangeStatus(ctx, first.ID, "cancelled")
	require.NoError(t, err)

	second, err := svc.Book(ctx, other.ID, physician.ID, slotDate, slotTime)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, second.Status)
}

func TestChangeStatus_RevivingCancelledIntoRebookedSlot(t *testing.T) {
	svc, repo, patient, physician := newTestService(t)
	ctx := context.Background()

	other := Patient{ID: uuid.New(), Name: "Jorge Silva"}
	repo.AddPatient(other)

	slotDate, slotTime := date(2025, 6, 10), NewTimeOfDay(9, 0, 0)

	first, err := svc.Book(ctx, patient.ID, physician.ID, slotDate, slotTime)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, first.ID, "cancelled")
	require.NoError(t, err)

	_, err = svc.Book(ctx, other.ID, physician.ID, slotDate, slotTime)
	require.NoError(t, err)

	// The slot was rebooked while cancelled, so the revival is refused and
	// the appointment stays cancelled.
	_, err = svc.ChangeStatus(ctx, first.ID, "pending")
	assert.ErrorIs(t, err, ErrSlotTaken)

	stored, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestBook_DistinctSlotsDoNotConflict(t *testing.T) {
	svc, repo, patient, physician := newTestService(t)
	ctx := context.Background()

	otherPhysician := Physician{ID: uuid.New(), Name: "Marta Ruiz", Specialty: "Dermatology"}
	repo.AddPhysician(otherPhysician)

	_, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	// Same slot, different physician.
	_, err = svc.Book(ctx, patient.ID, otherPhysician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	assert.NoError(t, err)

	// Same physician, different time.
	_, err = svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 30, 0))
	assert.NoError(t, err)
}

func TestBook_ConcurrentSameSlot(t *testing.T) {
	svc, repo, _, physician := newTestService(t)
	ctx := context.Background()

	const attempts = 20
	patients := make([]uuid.UUID, attempts)
	for i := range patients {
		p := Patient{ID: uuid.New(), Name: "Concurrent Patient"}
		repo.AddPatient(p)
		patients[i] = p.ID
	}

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(patientID uuid.UUID) {
			defer wg.Done()
			_, err := svc.Book(ctx, patientID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
			results <- err
		}(patients[i])
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent booking may win the slot")
}

func TestUpdate_PartialPatchMergesState(t *testing.T) {
	svc, repo, patient, physician := newTestService(t)
	ctx := context.Background()

	other := Patient{ID: uuid.New(), Name: "Jorge Silva"}
	repo.AddPatient(other)

	appt, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	blocker, err := svc.Book(ctx, other.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(10, 0, 0))
	require.NoError(t, err)
	_ = blocker

	// Changing only the time must be checked against the unchanged
	// physician and date: 10:00 is already taken.
	next := NewTimeOfDay(10, 0, 0)
	_, err = svc.Update(ctx, appt.ID, Patch{Time: &next})
	assert.ErrorIs(t, err, ErrSlotTaken)

	// A free time on the same day works.
	free := NewTimeOfDay(11, 0, 0)
	updated, err := svc.Update(ctx, appt.ID, Patch{Time: &free})
	require.NoError(t, err)
	assert.Equal(t, free, updated.Time)
	assert.True(t, updated.Date.Equal(date(2025, 6, 10)))
}

func TestUpdate_OwnSlotExcludedFromConflictScan(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	// Re-submitting the appointment's own slot is not a conflict.
	same := NewTimeOfDay(9, 0, 0)
	_, err = svc.Update(ctx, appt.ID, Patch{Time: &same})
	assert.NoError(t, err)
}

func TestUpdate_InvalidTimeLeavesAppointmentUnchanged(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	late := NewTimeOfDay(21, 0, 0)
	_, err = svc.Update(ctx, appt.ID, Patch{Time: &late})
	assert.ErrorIs(t, err, ErrOutsideBusinessHours)

	stored, err := svc.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(9, 0, 0), stored.Time)
}

func TestUpdate_Validation(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	_, err = svc.Update(ctx, uuid.New(), Patch{})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	ghost := uuid.New()
	_, err = svc.Update(ctx, appt.ID, Patch{PhysicianID: &ghost})
	assert.ErrorIs(t, err, ErrPhysicianNotFound)

	past := date(2025, 5, 1)
	_, err = svc.Update(ctx, appt.ID, Patch{Date: &past})
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestUpdate_MovePhysician(t *testing.T) {
	svc, repo, patient, physician := newTestService(t)
	ctx := context.Background()

	otherPhysician := Physician{ID: uuid.New(), Name: "Marta Ruiz", Specialty: "Dermatology"}
	repo.AddPhysician(otherPhysician)

	appt, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	// Occupy the target physician's identical slot.
	_, err = svc.Book(ctx, patient.ID, otherPhysician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	_, err = svc.Update(ctx, appt.ID, Patch{PhysicianID: &otherPhysician.ID})
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Moving to a free slot of the new physician succeeds.
	free := NewTimeOfDay(12, 0, 0)
	updated, err := svc.Update(ctx, appt.ID, Patch{PhysicianID: &otherPhysician.ID, Time: &free})
	require.NoError(t, err)
	assert.Equal(t, otherPhysician.ID, updated.PhysicianID)
	assert.Equal(t, free, updated.Time)
}

func TestChangeStatus(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	// Unknown value rejected.
	_, err = svc.ChangeStatus(ctx, appt.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// Case-insensitive input, canonical lowercase storage.
	updated, err := svc.ChangeStatus(ctx, appt.ID, "CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)

	// No transition graph: completed back to pending is allowed.
	updated, err = svc.ChangeStatus(ctx, appt.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	updated, err = svc.ChangeStatus(ctx, appt.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)

	_, err = svc.ChangeStatus(ctx, uuid.New(), "confirmed")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestDelete(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	found, err := svc.Delete(ctx, appt.ID)
	require.NoError(t, err)
	assert.True(t, found)

	_, err = svc.Get(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	found, err = svc.Delete(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListByPatient_OrderingAndExistence(t *testing.T) {
	svc, _, patient, physician := newTestService(t)
	ctx := context.Background()

	// Booked out of order on purpose.
	_, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)
	_, err = svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 12), NewTimeOfDay(8, 30, 0))
	require.NoError(t, err)
	_, err = svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(15, 0, 0))
	require.NoError(t, err)

	list, err := svc.ListByPatient(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.True(t, list[0].Date.Equal(date(2025, 6, 12)))
	assert.True(t, list[1].Date.Equal(date(2025, 6, 10)))
	assert.Equal(t, NewTimeOfDay(15, 0, 0), list[1].Time)
	assert.Equal(t, NewTimeOfDay(9, 0, 0), list[2].Time)

	_, err = svc.ListByPatient(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestListByPhysician_Existence(t *testing.T) {
	svc, _, _, physician := newTestService(t)
	ctx := context.Background()

	list, err := svc.ListByPhysician(ctx, physician.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ListByPhysician(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPhysicianNotFound)
}

func TestListFiltered(t *testing.T) {
	svc, repo, patient, physician := newTestService(t)
	ctx := context.Background()

	other := Patient{ID: uuid.New(), Name: "Jorge Silva"}
	repo.AddPatient(other)

	a1, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)
	_, err = svc.Book(ctx, other.ID, physician.ID, date(2025, 6, 15), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, a1.ID, "confirmed")
	require.NoError(t, err)

	// Conjunctive filters.
	confirmed := StatusConfirmed
	list, err := svc.ListFiltered(ctx, Filter{PatientID: &patient.ID, Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a1.ID, list[0].ID)

	// Inclusive date range.
	from, to := date(2025, 6, 10), date(2025, 6, 15)
	list, err = svc.ListFiltered(ctx, Filter{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	from = date(2025, 6, 11)
	list, err = svc.ListFiltered(ctx, Filter{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// No existence pre-check: an unknown id yields an empty result, not an
	// error. Intentional asymmetry with ListByPatient.
	ghost := uuid.New()
	list, err = svc.ListFiltered(ctx, Filter{PatientID: &ghost})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCompleteElapsed(t *testing.T) {
	svc, repo, patient, physician := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)
	cancelled, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 10), NewTimeOfDay(10, 0, 0))
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, cancelled.ID, "cancelled")
	require.NoError(t, err)
	future, err := svc.Book(ctx, patient.ID, physician.ID, date(2025, 6, 20), NewTimeOfDay(9, 0, 0))
	require.NoError(t, err)

	// Advance the clock past the first two slots.
	svc.WithClock(func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) })

	n, err := svc.CompleteElapsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	// Cancelled and future appointments untouched.
	got, err = repo.GetAppointmentByID(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	got, err = repo.GetAppointmentByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}
