package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// uniquenessError maps a 23505 on the patients table to the domain error for
// the violated column.
func uniquenessError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "patients_national_id_key":
		return ErrNationalIDTaken
	case "patients_email_key":
		return ErrEmailTaken
	}
	return nil
}

// restrictError maps a 23503 (foreign key) raised by ON DELETE RESTRICT.
func restrictError(err error, fallback error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fallback
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.NationalID,
		&p.Phone,
		&p.Email,
		&p.PasswordHash,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanPhysician(row pgx.Row) (*Physician, error) {
	var p Physician
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPhysicianNotFound
		}
		return nil, err
	}
	return &p, nil
}

const patientColumns = "id, name, national_id, phone, email, password_hash, role, created_at, updated_at"

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, national_id, phone, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+patientColumns+`
	`, id, p.Name, p.NationalID, p.Phone, p.Email, p.PasswordHash, p.Role)

	created, err := scanPatient(row)
	if err != nil {
		if uniqueErr := uniquenessError(err); uniqueErr != nil {
			return nil, uniqueErr
		}
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE email = $1`, email)
	return scanPatient(row)
}

func (r *PgRepository) PatientEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *PgRepository) PatientNationalIDExists(ctx context.Context, nationalID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE national_id = $1)`, nationalID).Scan(&exists)
	return exists, err
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET name = $2,
		    phone = $3,
		    email = $4,
		    password_hash = $5,
		    role = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns+`
	`, p.ID, p.Name, p.Phone, p.Email, p.PasswordHash, p.Role)

	updated, err := scanPatient(row)
	if err != nil {
		if uniqueErr := uniquenessError(err); uniqueErr != nil {
			return nil, uniqueErr
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) DeletePatient(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		if restrictErr := restrictError(err, ErrPatientHasAppointments); restrictErr != nil {
			return false, restrictErr
		}
		return false, fmt.Errorf("delete patient: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreatePhysician(ctx context.Context, p *Physician) (*Physician, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO physicians (id, name, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, specialty, created_at, updated_at
	`, id, p.Name, p.Specialty)

	created, err := scanPhysician(row)
	if err != nil {
		return nil, fmt.Errorf("insert physician: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetPhysicianByID(ctx context.Context, id uuid.UUID) (*Physician, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at FROM physicians WHERE id = $1
	`, id)
	return scanPhysician(row)
}

func (r *PgRepository) UpdatePhysician(ctx context.Context, p *Physician) (*Physician, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE physicians
		SET name = $2,
		    specialty = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, specialty, created_at, updated_at
	`, p.ID, p.Name, p.Specialty)
	return scanPhysician(row)
}

func (r *PgRepository) DeletePhysician(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM physicians WHERE id = $1`, id)
	if err != nil {
		if restrictErr := restrictError(err, ErrPhysicianHasAppointments); restrictErr != nil {
			return false, restrictErr
		}
		return false, fmt.Errorf("delete physician: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) ListPhysicians(ctx context.Context) ([]Physician, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, created_at, updated_at FROM physicians ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Physician
	for rows.Next() {
		p, err := scanPhysician(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}
