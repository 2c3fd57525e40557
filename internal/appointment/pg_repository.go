package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func pgTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * 1_000_000, Valid: true}
}

func fromPgTime(t pgtype.Time) TimeOfDay {
	return TimeOfDay(t.Microseconds / 1_000_000)
}

// isSlotViolation detects the partial unique index over
// (physician_id, date, time_of_day) rejecting a write. This is the safety
// net behind the in-process conflict pre-check.
func isSlotViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_physician_slot"
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var tod pgtype.Time

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PhysicianID,
		&a.Date,
		&tod,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = DateOnly(a.Date)
	a.Time = fromPgTime(tod)
	return &a, nil
}

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var tod pgtype.Time

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.PhysicianID,
		&d.Date,
		&tod,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.PatientName,
		&d.PhysicianName,
		&d.PhysicianSpecialty,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	d.Date = DateOnly(d.Date)
	d.Time = fromPgTime(tod)
	return &d, nil
}

const detailSelect = `
	SELECT a.id, a.patient_id, a.physician_id, a.date, a.time_of_day,
	       a.status, a.created_at, a.updated_at,
	       p.name, ph.name, ph.specialty
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN physicians ph ON ph.id = a.physician_id
`

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx, `
		SELECT id, name FROM patients WHERE id = $1
	`, id).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetPhysicianByID(ctx context.Context, id uuid.UUID) (*Physician, error) {
	var p Physician
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty FROM physicians WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Specialty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPhysicianNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, physician_id, date, time_of_day, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, detailSelect+` WHERE a.id = $1`, id)
	return scanDetail(row)
}

func (r *PgRepository) HasConflict(ctx context.Context, physicianID uuid.UUID, date time.Time, tod TimeOfDay, excludeID *uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE physician_id = $1
			  AND date = $2
			  AND time_of_day = $3
			  AND status <> 'cancelled'
			  AND ($4::uuid IS NULL OR id <> $4)
		)
	`, physicianID, DateOnly(date), pgTime(tod), excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("conflict check: %w", err)
	}
	return taken, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, patientID, physicianID uuid.UUID, date time.Time, tod TimeOfDay) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, physician_id, date, time_of_day, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', now(), now())
		RETURNING id, patient_id, physician_id, date, time_of_day, status, created_at, updated_at
	`, id, patientID, physicianID, DateOnly(date), pgTime(tod))

	appt, err := scanAppointment(row)
	if err != nil {
		if isSlotViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET physician_id = $2,
		    date = $3,
		    time_of_day = $4,
		    status = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, physician_id, date, time_of_day, status, created_at, updated_at
	`, appt.ID, appt.PhysicianID, DateOnly(appt.Date), pgTime(appt.Time), appt.Status)

	updated, err := scanAppointment(row)
	if err != nil {
		if isSlotViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, patient_id, physician_id, date, time_of_day, status, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete appointment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailSelect+`
		WHERE a.patient_id = $1
		ORDER BY a.date DESC, a.time_of_day DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListByPhysician(ctx context.Context, physicianID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailSelect+`
		WHERE a.physician_id = $1
		ORDER BY a.date DESC, a.time_of_day DESC
	`, physicianID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListFiltered(ctx context.Context, f Filter) ([]AppointmentDetail, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PatientID != nil {
		conds = append(conds, "a.patient_id = "+arg(*f.PatientID))
	}
	if f.PhysicianID != nil {
		conds = append(conds, "a.physician_id = "+arg(*f.PhysicianID))
	}
	if f.DateFrom != nil {
		conds = append(conds, "a.date >= "+arg(DateOnly(*f.DateFrom)))
	}
	if f.DateTo != nil {
		conds = append(conds, "a.date <= "+arg(DateOnly(*f.DateTo)))
	}
	if f.Status != nil {
		conds = append(conds, "a.status = "+arg(*f.Status))
	}

	query := detailSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY a.date DESC, a.time_of_day DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) FindElapsed(ctx context.Context, now time.Time) ([]Appointment, error) {
	today := DateOnly(now)
	tod := NewTimeOfDay(now.Hour(), now.Minute(), now.Second())

	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, physician_id, date, time_of_day, status, created_at, updated_at
		FROM appointments
		WHERE status IN ('pending', 'confirmed')
		  AND (date < $1 OR (date = $1 AND time_of_day < $2))
	`, today, pgTime(tod))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
