package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by the test suites. It
// enforces the same non-cancelled slot uniqueness the database constraint
// does, so the service's behavior under rejected writes can be exercised
// without Postgres.
type MemoryRepository struct {
	mu         sync.RWMutex
	patients   map[uuid.UUID]Patient
	physicians map[uuid.UUID]Physician
	appts      map[uuid.UUID]Appointment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		patients:   make(map[uuid.UUID]Patient),
		physicians: make(map[uuid.UUID]Physician),
		appts:      make(map[uuid.UUID]Appointment),
	}
}

func (r *MemoryRepository) AddPatient(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = p
}

func (r *MemoryRepository) AddPhysician(p Physician) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.physicians[p.ID] = p
}

func (r *MemoryRepository) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) GetPhysicianByID(_ context.Context, id uuid.UUID) (*Physician, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.physicians[id]
	if !ok {
		return nil, ErrPhysicianNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) GetAppointmentDetail(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	d := r.detail(a)
	return &d, nil
}

// caller must hold at least a read lock.
func (r *MemoryRepository) detail(a Appointment) AppointmentDetail {
	d := AppointmentDetail{Appointment: a}
	if p, ok := r.patients[a.PatientID]; ok {
		d.PatientName = p.Name
	}
	if ph, ok := r.physicians[a.PhysicianID]; ok {
		d.PhysicianName = ph.Name
		d.PhysicianSpecialty = ph.Specialty
	}
	return d
}

// caller must hold at least a read lock.
func (r *MemoryRepository) slotTaken(physicianID uuid.UUID, date time.Time, tod TimeOfDay, excludeID *uuid.UUID) bool {
	for _, a := range r.appts {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.PhysicianID == physicianID && a.Date.Equal(DateOnly(date)) && a.Time == tod && a.Status != StatusCancelled {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) HasConflict(_ context.Context, physicianID uuid.UUID, date time.Time, tod TimeOfDay, excludeID *uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slotTaken(physicianID, date, tod, excludeID), nil
}

func (r *MemoryRepository) CreateAppointment(_ context.Context, patientID, physicianID uuid.UUID, date time.Time, tod TimeOfDay) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slotTaken(physicianID, date, tod, nil) {
		return nil, ErrSlotTaken
	}

	now := time.Now()
	a := Appointment{
		ID:          uuid.New(),
		PatientID:   patientID,
		PhysicianID: physicianID,
		Date:        DateOnly(date),
		Time:        tod,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.appts[a.ID] = a
	return &a, nil
}

func (r *MemoryRepository) UpdateAppointment(_ context.Context, appt *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.appts[appt.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	if appt.Status != StatusCancelled && r.slotTaken(appt.PhysicianID, appt.Date, appt.Time, &appt.ID) {
		return nil, ErrSlotTaken
	}

	stored.PhysicianID = appt.PhysicianID
	stored.Date = DateOnly(appt.Date)
	stored.Time = appt.Time
	stored.Status = appt.Status
	stored.UpdatedAt = time.Now()
	r.appts[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.appts[id]
	if !ok || stored.Status != from {
		return nil, ErrAppointmentNotFound
	}

	stored.Status = to
	stored.UpdatedAt = time.Now()
	r.appts[id] = stored
	return &stored, nil
}

func (r *MemoryRepository) DeleteAppointment(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[id]; !ok {
		return false, nil
	}
	delete(r.appts, id)
	return true, nil
}

func (r *MemoryRepository) ListByPatient(_ context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	return r.list(func(a Appointment) bool { return a.PatientID == patientID })
}

func (r *MemoryRepository) ListByPhysician(_ context.Context, physicianID uuid.UUID) ([]AppointmentDetail, error) {
	return r.list(func(a Appointment) bool { return a.PhysicianID == physicianID })
}

func (r *MemoryRepository) ListFiltered(_ context.Context, f Filter) ([]AppointmentDetail, error) {
	return r.list(func(a Appointment) bool {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			return false
		}
		if f.PhysicianID != nil && a.PhysicianID != *f.PhysicianID {
			return false
		}
		if f.DateFrom != nil && a.Date.Before(DateOnly(*f.DateFrom)) {
			return false
		}
		if f.DateTo != nil && a.Date.After(DateOnly(*f.DateTo)) {
			return false
		}
		if f.Status != nil && a.Status != *f.Status {
			return false
		}
		return true
	})
}

func (r *MemoryRepository) list(match func(Appointment) bool) ([]AppointmentDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []AppointmentDetail
	for _, a := range r.appts {
		if match(a) {
			result = append(result, r.detail(a))
		}
	}

	// Most recent slot first: date desc, then time desc.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Time > result[j].Time
	})

	return result, nil
}

func (r *MemoryRepository) FindElapsed(_ context.Context, now time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	today := DateOnly(now)
	tod := NewTimeOfDay(now.Hour(), now.Minute(), now.Second())

	var result []Appointment
	for _, a := range r.appts {
		if a.Status != StatusPending && a.Status != StatusConfirmed {
			continue
		}
		if a.Date.Before(today) || (a.Date.Equal(today) && a.Time < tod) {
			result = append(result, a)
		}
	}
	return result, nil
}
