package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository backs the directory test suites. It enforces the same
// email and national-id uniqueness the database constraints do. Referential
// restriction on delete mirrors the schema's ON DELETE RESTRICT through the
// injected reference checks.
type MemoryRepository struct {
	mu         sync.RWMutex
	patients   map[uuid.UUID]Patient
	physicians map[uuid.UUID]Physician

	patientReferenced   func(uuid.UUID) bool
	physicianReferenced func(uuid.UUID) bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		patients:   make(map[uuid.UUID]Patient),
		physicians: make(map[uuid.UUID]Physician),
	}
}

// ReferenceChecks wires the appointment store's view of which records are
// still referenced, standing in for the appointments foreign keys. A nil
// check means no references exist.
func (r *MemoryRepository) ReferenceChecks(patient, physician func(uuid.UUID) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patientReferenced = patient
	r.physicianReferenced = physician
}

func (r *MemoryRepository) CreatePatient(_ context.Context, p *Patient) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.patients {
		if existing.NationalID == p.NationalID {
			return nil, ErrNationalIDTaken
		}
		if existing.Email == p.Email {
			return nil, ErrEmailTaken
		}
	}

	now := time.Now()
	created := *p
	created.ID = uuid.New()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.patients[created.ID] = created
	return &created, nil
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

func (r *MemoryRepository) GetPatientByEmail(_ context.Context, email string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.patients {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *MemoryRepository) PatientEmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.patients {
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) PatientNationalIDExists(_ context.Context, nationalID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.patients {
		if p.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) UpdatePatient(_ context.Context, p *Patient) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.patients[p.ID]
	if !ok {
		return nil, ErrPatientNotFound
	}

	for id, existing := range r.patients {
		if id == p.ID {
			continue
		}
		if existing.Email == p.Email {
			return nil, ErrEmailTaken
		}
	}

	stored.Name = p.Name
	stored.Phone = p.Phone
	stored.Email = p.Email
	stored.PasswordHash = p.PasswordHash
	stored.Role = p.Role
	stored.UpdatedAt = time.Now()
	r.patients[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) DeletePatient(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return false, nil
	}
	if r.patientReferenced != nil && r.patientReferenced(id) {
		return false, ErrPatientHasAppointments
	}
	delete(r.patients, id)
	return true, nil
}

func (r *MemoryRepository) ListPatients(_ context.Context) ([]Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Patient, 0, len(r.patients))
	for _, p := range r.patients {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *MemoryRepository) CreatePhysician(_ context.Context, p *Physician) (*Physician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	created := *p
	created.ID = uuid.New()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.physicians[created.ID] = created
	return &created, nil
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

func (r *MemoryRepository) UpdatePhysician(_ context.Context, p *Physician) (*Physician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.physicians[p.ID]
	if !ok {
		return nil, ErrPhysicianNotFound
	}

	stored.Name = p.Name
	stored.Specialty = p.Specialty
	stored.UpdatedAt = time.Now()
	r.physicians[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) DeletePhysician(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.physicians[id]; !ok {
		return false, nil
	}
	if r.physicianReferenced != nil && r.physicianReferenced(id) {
		return false, ErrPhysicianHasAppointments
	}
	delete(r.physicians, id)
	return true, nil
}

func (r *MemoryRepository) ListPhysicians(_ context.Context) ([]Physician, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Physician, 0, len(r.physicians))
	for _, p := range r.physicians {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
