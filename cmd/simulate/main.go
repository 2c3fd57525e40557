package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcita/appointment-scheduling/internal/appointment"
	"github.com/medcita/appointment-scheduling/internal/config"
	"github.com/medcita/appointment-scheduling/internal/db"
)

// The simulator hammers a deliberately small (physician, date, time) slot
// grid with concurrent bookings, status changes and reads, then reports
// per-operation outcome and latency numbers. With more workers than free
// slots, a healthy run shows exactly one success per slot and conflicts
// for everything else.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	PatientLimit int
	// Contended slots = PhysicianLimit physicians x SlotDays days x the
	// half-hour grid. Keeping this small forces booking collisions.
	PhysicianLimit int
	SlotDays       int
	LoginEmail     string
	LoginPassword  string
	PostgresDSN    string
}

// slot is one bookable (physician, date, time) tuple.
type slot struct {
	PhysicianID uuid.UUID
	Date        string
	Time        string
}

// outcome buckets per operation. Guarded by one mutex: the simulator is
// I/O-bound, so contention on it is negligible.
type opStats struct {
	success   int
	conflict  int
	failed    int
	latencies []time.Duration
}

type report struct {
	mu  sync.Mutex
	ops map[string]*opStats
}

func (r *report) record(op string, latency time.Duration, status int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.ops[op]
	if st == nil {
		st = &opStats{}
		r.ops[op] = st
	}
	switch {
	case err == nil && status < 300:
		st.success++
	case err == nil && status == http.StatusConflict:
		st.conflict++
	default:
		st.failed++
	}
	st.latencies = append(st.latencies, latency)
}

func (r *report) print(cfg SimConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Printf("\nsimulation report: duration=%s workers=%d\n\n", cfg.Duration, cfg.Workers)

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := r.ops[name]
		total := st.success + st.conflict + st.failed

		sort.Slice(st.latencies, func(i, j int) bool { return st.latencies[i] < st.latencies[j] })
		pct := func(p int) time.Duration {
			idx := len(st.latencies) * p / 100
			if idx >= len(st.latencies) {
				idx = len(st.latencies) - 1
			}
			return st.latencies[idx].Round(time.Millisecond)
		}

		fmt.Printf("%-18s total=%-6d success=%-6d conflict=%-6d failed=%-6d p50=%s p95=%s\n",
			name, total, st.success, st.conflict, st.failed, pct(50), pct(95))
	}
}

type simulator struct {
	cfg    SimConfig
	client *http.Client
	token  string
	report report

	patients []uuid.UUID
	slots    []slot

	mu     sync.Mutex
	booked []uuid.UUID
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.LoginEmail == "" {
		log.Fatal("SIM_LOGIN_EMAIL is required (any account from cmd/seed works)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	sim := &simulator{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		report: report{ops: make(map[string]*opStats)},
	}

	if err := sim.loadDirectory(ctx, pgPool); err != nil {
		log.Fatalf("load directory: %v", err)
	}
	log.Printf("loaded %d patients, %d contended slots", len(sim.patients), len(sim.slots))

	if err := sim.login(ctx); err != nil {
		log.Fatalf("login: %v", err)
	}

	sim.run()
	sim.report.print(cfg)
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:     envStr("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:       envDuration("SIM_DURATION", 30*time.Second),
		Workers:        envInt("SIM_WORKERS", 10),
		PatientLimit:   envInt("SIM_PATIENT_LIMIT", 400),
		PhysicianLimit: envInt("SIM_PHYSICIAN_LIMIT", 5),
		SlotDays:       envInt("SIM_SLOT_DAYS", 3),
		LoginEmail:     os.Getenv("SIM_LOGIN_EMAIL"),
		LoginPassword:  envStr("SIM_LOGIN_PASSWORD", "password-123"),
		PostgresDSN:    baseCfg.PostgresDSN,
	}
}

// loadDirectory pulls patient and physician ids straight from the store and
// lays out the half-hour slot grid the workers will fight over.
func (s *simulator) loadDirectory(ctx context.Context, pool *pgxpool.Pool) error {
	patients, err := queryIDs(ctx, pool, `SELECT id FROM patients LIMIT $1`, s.cfg.PatientLimit)
	if err != nil {
		return fmt.Errorf("load patients: %w", err)
	}
	physicians, err := queryIDs(ctx, pool, `SELECT id FROM physicians LIMIT $1`, s.cfg.PhysicianLimit)
	if err != nil {
		return fmt.Errorf("load physicians: %w", err)
	}
	if len(patients) == 0 || len(physicians) == 0 {
		return fmt.Errorf("empty directory (run cmd/seed first)")
	}
	s.patients = patients

	today := time.Now().UTC()
	for _, physicianID := range physicians {
		for day := 1; day <= s.cfg.SlotDays; day++ {
			date := today.AddDate(0, 0, day).Format("2006-01-02")
			for hour := 8; hour < 20; hour++ {
				for _, min := range []int{0, 30} {
					s.slots = append(s.slots, slot{
						PhysicianID: physicianID,
						Date:        date,
						Time:        appointment.NewTimeOfDay(hour, min, 0).String(),
					})
				}
			}
		}
	}
	return nil
}

func queryIDs(ctx context.Context, pool *pgxpool.Pool, sql string, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *simulator) login(ctx context.Context) error {
	status, body, _, err := s.call(ctx, "POST", "/auth/login", map[string]string{
		"email":    s.cfg.LoginEmail,
		"password": s.cfg.LoginPassword,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("login returned %d: %s", status, body)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return err
	}
	s.token = resp.Token
	return nil
}

func (s *simulator) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Duration)
	defer cancel()

	log.Printf("running for %s with %d workers", s.cfg.Duration, s.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + seed))
			for ctx.Err() == nil {
				s.step(ctx, rng)
			}
		}(int64(i))
	}
	wg.Wait()

	log.Println("simulation complete")
}

// step runs one randomly chosen operation: half bookings, the rest split
// between confirms and reads.
func (s *simulator) step(ctx context.Context, rng *rand.Rand) {
	switch r := rng.Float64(); {
	case r < 0.5:
		s.doBooking(ctx, rng)
	case r < 0.7:
		s.doConfirm(ctx, rng)
	case r < 0.85:
		s.doListByPatient(ctx, rng)
	default:
		s.doRead(ctx, rng)
	}
}

// call issues one authenticated request and returns status, body and latency.
func (s *simulator) call(ctx context.Context, method, path string, payload any) (int, []byte, time.Duration, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.APIBaseURL+path, reader)
	if err != nil {
		return 0, nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, nil, latency, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, latency, err
}

func (s *simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	sl := s.slots[rng.Intn(len(s.slots))]
	patientID := s.patients[rng.Intn(len(s.patients))]

	status, body, latency, err := s.call(ctx, "POST", "/appointments", map[string]string{
		"patient_id":   patientID.String(),
		"physician_id": sl.PhysicianID.String(),
		"date":         sl.Date,
		"time":         sl.Time,
	})
	s.report.record("booking", latency, status, err)

	if err == nil && status == http.StatusCreated {
		var created struct {
			ID uuid.UUID `json:"id"`
		}
		if json.Unmarshal(body, &created) == nil && created.ID != uuid.Nil {
			s.mu.Lock()
			s.booked = append(s.booked, created.ID)
			s.mu.Unlock()
		}
	}
}

func (s *simulator) randomBooked(rng *rand.Rand) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.booked) == 0 {
		return uuid.Nil, false
	}
	return s.booked[rng.Intn(len(s.booked))], true
}

func (s *simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	id, ok := s.randomBooked(rng)
	if !ok {
		return
	}
	status, _, latency, err := s.call(ctx, "PATCH",
		fmt.Sprintf("/appointments/%s/status", id), map[string]string{"status": "confirmed"})
	s.report.record("confirm", latency, status, err)
}

func (s *simulator) doRead(ctx context.Context, rng *rand.Rand) {
	id, ok := s.randomBooked(rng)
	if !ok {
		return
	}
	status, _, latency, err := s.call(ctx, "GET", "/appointments/"+id.String(), nil)
	s.report.record("read", latency, status, err)
}

func (s *simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	patientID := s.patients[rng.Intn(len(s.patients))]
	status, _, latency, err := s.call(ctx, "GET",
		fmt.Sprintf("/patients/%s/appointments", patientID), nil)
	s.report.record("list_by_patient", latency, status, err)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
