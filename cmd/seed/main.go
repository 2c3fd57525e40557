package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/medcita/appointment-scheduling/internal/appointment"
	"github.com/medcita/appointment-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	physicianIDs, err := seedPhysicians(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed physicians: %v", err)
	}
	patientIDs, err := seedPatients(context.Background(), pool, 500)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, patientIDs, physicianIDs, 2000); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedPhysicians(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d physicians", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO physicians (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("physicians seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	// Every seeded patient shares one bcrypt hash so the batch stays fast.
	hash, err := bcrypt.GenerateFromPassword([]byte("password-123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		email := fmt.Sprintf("%d.%s", i, gofakeit.Email())
		phone := gofakeit.Numerify("##########")

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, name, national_id, phone, email, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'patient', now(), now())
		`, id, name, fakeNationalID(i), phone, email, string(hash))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("patients seeded")
	return ids, nil
}

// fakeNationalID builds a CURP-shaped 18-character code. The serial suffix
// keeps the batch collision-free.
func fakeNationalID(i int) string {
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var b strings.Builder
	for j := 0; j < 4; j++ {
		b.WriteByte(letters[gofakeit.Number(0, 25)])
	}
	b.WriteString(gofakeit.DateRange(
		time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC),
	).Format("060102"))
	if gofakeit.Bool() {
		b.WriteByte('H')
	} else {
		b.WriteByte('M')
	}
	for j := 0; j < 3; j++ {
		b.WriteByte(letters[gofakeit.Number(0, 25)])
	}
	b.WriteString(fmt.Sprintf("%02d", i%100))
	b.WriteString(fmt.Sprintf("%02d", (i/100)%100))
	return b.String()
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, patientIDs, physicianIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	statuses := []appointment.Status{
		appointment.StatusPending,
		appointment.StatusConfirmed,
		appointment.StatusCancelled,
	}

	today := time.Now().UTC()
	inserted := 0
	for inserted < count {
		patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
		physicianID := physicianIDs[gofakeit.Number(0, len(physicianIDs)-1)]
		date := today.AddDate(0, 0, gofakeit.Number(1, 60))
		// Slots fall on the half hour within business hours.
		tod := appointment.NewTimeOfDay(gofakeit.Number(8, 19), 30*gofakeit.Number(0, 1), 0)
		status := statuses[gofakeit.Number(0, len(statuses)-1)]

		tag, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, patient_id, physician_id, date, time_of_day, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT DO NOTHING
		`, uuid.New(), patientID, physicianID,
			date.Format("2006-01-02"), tod.String(), string(status))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			// Collided with an occupied slot; try another draw.
			continue
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}
