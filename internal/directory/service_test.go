package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newPatientInput() NewPatient {
	phone := "5512345678"
	return NewPatient{
		Name:       "Ana Torres",
		NationalID: "TOAA900101MDFRRN09",
		Phone:      &phone,
		Email:      "ana@example.com",
		Password:   "hunter2hunter2",
	}
}

func TestRegisterPatient(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	p, err := svc.RegisterPatient(ctx, newPatientInput())
	require.NoError(t, err)
	assert.Equal(t, RolePatient, p.Role)
	assert.NotEqual(t, "hunter2hunter2", p.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("hunter2hunter2")))

	// Duplicate national id.
	dup := newPatientInput()
	dup.Email = "other@example.com"
	_, err = svc.RegisterPatient(ctx, dup)
	assert.ErrorIs(t, err, ErrNationalIDTaken)

	// Duplicate email.
	dup = newPatientInput()
	dup.NationalID = "SIJO850505HDFLRG02"
	_, err = svc.RegisterPatient(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdatePatient(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	p, err := svc.RegisterPatient(ctx, newPatientInput())
	require.NoError(t, err)

	other := newPatientInput()
	other.NationalID = "SIJO850505HDFLRG02"
	other.Email = "jorge@example.com"
	_, err = svc.RegisterPatient(ctx, other)
	require.NoError(t, err)

	name := "Ana María Torres"
	updated, err := svc.UpdatePatient(ctx, p.ID, PatientPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, p.Email, updated.Email)

	// Moving to an email someone else holds is rejected.
	taken := "jorge@example.com"
	_, err = svc.UpdatePatient(ctx, p.ID, PatientPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// Re-submitting one's own email is fine.
	own := p.Email
	_, err = svc.UpdatePatient(ctx, p.ID, PatientPatch{Email: &own})
	assert.NoError(t, err)

	// Password change re-hashes.
	pw := "correct horse battery staple"
	updated, err = svc.UpdatePatient(ctx, p.ID, PatientPatch{Password: &pw})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(pw)))

	_, err = svc.UpdatePatient(ctx, uuid.New(), PatientPatch{Name: &name})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.RegisterPatient(ctx, newPatientInput())
	require.NoError(t, err)

	p, err := svc.Authenticate(ctx, "ana@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Ana Torres", p.Name)

	_, err = svc.Authenticate(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown account reports the same error as a bad password.
	_, err = svc.Authenticate(ctx, "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangeRole(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	p, err := svc.RegisterPatient(ctx, newPatientInput())
	require.NoError(t, err)

	updated, err := svc.ChangeRole(ctx, p.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, updated.Role)

	_, err = svc.ChangeRole(ctx, p.ID, "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestPhysicianCRUD(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	created, err := svc.CreatePhysician(ctx, "Luis Mendoza", "Cardiology")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	specialty := "Pediatric Cardiology"
	updated, err := svc.UpdatePhysician(ctx, created.ID, PhysicianPatch{Specialty: &specialty})
	require.NoError(t, err)
	assert.Equal(t, "Luis Mendoza", updated.Name)
	assert.Equal(t, specialty, updated.Specialty)

	list, err := svc.ListPhysicians(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	found, err := svc.DeletePhysician(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = svc.DeletePhysician(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = svc.GetPhysician(ctx, created.ID)
	assert.ErrorIs(t, err, ErrPhysicianNotFound)
}

func TestDeletePatientRefusedWhileReferenced(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.RegisterPatient(ctx, newPatientInput())
	require.NoError(t, err)

	referenced := map[uuid.UUID]bool{p.ID: true}
	repo.ReferenceChecks(
		func(id uuid.UUID) bool { return referenced[id] },
		nil,
	)

	found, err := svc.DeletePatient(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPatientHasAppointments)
	assert.False(t, found)

	// The record survives the refused delete.
	_, err = svc.GetPatient(ctx, p.ID)
	require.NoError(t, err)

	// Once the appointments are gone, the delete goes through.
	delete(referenced, p.ID)
	found, err = svc.DeletePatient(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDeletePhysicianRefusedWhileReferenced(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	ph, err := svc.CreatePhysician(ctx, "Luis Mendoza", "Cardiology")
	require.NoError(t, err)

	referenced := map[uuid.UUID]bool{ph.ID: true}
	repo.ReferenceChecks(
		nil,
		func(id uuid.UUID) bool { return referenced[id] },
	)

	found, err := svc.DeletePhysician(ctx, ph.ID)
	assert.ErrorIs(t, err, ErrPhysicianHasAppointments)
	assert.False(t, found)

	delete(referenced, ph.ID)
	found, err = svc.DeletePhysician(ctx, ph.ID)
	require.NoError(t, err)
	assert.True(t, found)
}
