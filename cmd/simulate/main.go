package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/logging"
)

type SimConfig struct {
	APIBaseURL string
	Racers     int // concurrent bookings fired at the same slot
	Rounds     int // slots contested
	SearchDays int // how far ahead to look for free slots
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch status {
	case http.StatusCreated:
		atomic.AddInt64(&om.Success, 1)
	case http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	max = latencies[len(latencies)-1]
	return avg, p50, p95, max
}

type contestedSlot struct {
	DoctorID uuid.UUID
	Datetime string
}

// roundResult is the outcome of one slot contest; the invariant is Success == 1.
type roundResult struct {
	Slot     contestedSlot
	Success  int64
	Conflict int64
	Other    int64
}

type Simulator struct {
	config   SimConfig
	client   *http.Client
	signer   *auth.Signer
	patients []uuid.UUID
	metrics  OperationMetrics
	logger   zerolog.Logger
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("prod", "simulate")
		bootLogger.Fatal().Err(err).Msg("failed to load base config")
	}
	logger := logging.New(baseCfg.Env, "simulate")

	cfg := SimConfig{
		APIBaseURL: getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Racers:     getInt("SIM_RACERS", 50),
		Rounds:     getInt("SIM_ROUNDS", 5),
		SearchDays: getInt("SIM_SEARCH_DAYS", 14),
	}
	if cfg.Racers < 2 || cfg.Rounds <= 0 {
		logger.Fatal().Msg("SIM_RACERS must be >= 2 and SIM_ROUNDS > 0")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, baseCfg.PostgresDSN, db.PoolOptions{MaxConns: baseCfg.PGMaxConns, MinConns: baseCfg.PGMinConns})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	patients, doctors, err := loadPeople(ctx, pgPool, cfg.Racers)
	if err != nil {
		logger.Fatal().Err(err).Msg("load data")
	}

	sim := &Simulator{
		config:   cfg,
		client:   &http.Client{Timeout: 10 * time.Second},
		signer:   auth.NewSigner(baseCfg.JWTSecret),
		patients: patients,
		logger:   logger,
	}

	slots, err := sim.findFreeSlots(ctx, doctors, baseCfg.Location)
	if err != nil {
		logger.Fatal().Err(err).Msg("find free slots")
	}
	logger.Info().Int("racers", cfg.Racers).Int("slots", len(slots)).Msg("simulation starting")

	var results []roundResult
	for _, slot := range slots {
		results = append(results, sim.contest(context.Background(), slot))
	}

	sim.PrintReport(results)
}

func loadPeople(ctx context.Context, pool *pgxpool.Pool, patientLimit int) ([]uuid.UUID, []uuid.UUID, error) {
	patients, err := loadIDs(ctx, pool, `SELECT id FROM patients ORDER BY random() LIMIT $1`, patientLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("load patients: %w", err)
	}
	doctors, err := loadIDs(ctx, pool, `SELECT DISTINCT doctor_profile_id FROM work_schedule_entries LIMIT $1`, 50)
	if err != nil {
		return nil, nil, fmt.Errorf("load doctors: %w", err)
	}
	if len(patients) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 patients, run clinicctl seed")
	}
	if len(doctors) == 0 {
		return nil, nil, fmt.Errorf("no doctor has a schedule, run clinicctl seed")
	}
	return patients, doctors, nil
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query, limit)
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

// findFreeSlots walks doctors' availability from tomorrow on until it has one
// unbooked slot per round.
func (s *Simulator) findFreeSlots(ctx context.Context, doctors []uuid.UUID, loc *time.Location) ([]contestedSlot, error) {
	var found []contestedSlot
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1)

	for day := 0; day < s.config.SearchDays && len(found) < s.config.Rounds; day++ {
		date := tomorrow.AddDate(0, 0, day).Format(time.DateOnly)
		for _, doctorID := range doctors {
			if len(found) >= s.config.Rounds {
				break
			}
			slots, err := s.availability(ctx, doctorID, date)
			if err != nil {
				return nil, err
			}
			for _, slot := range slots {
				if !slot.IsBooked {
					found = append(found, contestedSlot{DoctorID: doctorID, Datetime: date + "T" + slot.Time})
					break
				}
			}
		}
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("no free slots in the next %d days", s.config.SearchDays)
	}
	return found, nil
}

type availabilitySlot struct {
	Time     string `json:"time"`
	IsBooked bool   `json:"is_booked"`
}

func (s *Simulator) availability(ctx context.Context, doctorID uuid.UUID, date string) ([]availabilitySlot, error) {
	url := fmt.Sprintf("%s/doctors/%s/availability?date=%s", s.config.APIBaseURL, doctorID, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("availability returned %d", resp.StatusCode)
	}

	var body struct {
		Slots []availabilitySlot `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Slots, nil
}

// contest releases every racer at once against the same slot.
func (s *Simulator) contest(ctx context.Context, slot contestedSlot) roundResult {
	result := roundResult{Slot: slot}
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < s.config.Racers; i++ {
		patientID := s.patients[i%len(s.patients)]
		token, err := s.signer.Issue(auth.Identity{Subject: patientID, Role: auth.RolePatient}, time.Hour)
		if err != nil {
			s.logger.Error().Err(err).Msg("mint token")
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			status := s.book(ctx, token, slot)
			switch status {
			case http.StatusCreated:
				atomic.AddInt64(&result.Success, 1)
			case http.StatusConflict:
				atomic.AddInt64(&result.Conflict, 1)
			default:
				atomic.AddInt64(&result.Other, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	s.logger.Info().
		Str("doctor_id", slot.DoctorID.String()).
		Str("datetime", slot.Datetime).
		Int64("success", result.Success).
		Int64("conflict", result.Conflict).
		Int64("other", result.Other).
		Msg("round complete")

	return result
}

func (s *Simulator) book(ctx context.Context, token string, slot contestedSlot) int {
	body, _ := json.Marshal(map[string]string{
		"doctor_profile_id":    slot.DoctorID.String(),
		"appointment_datetime": slot.Datetime,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	begin := time.Now()
	resp, err := s.client.Do(req)
	status := 0
	if err == nil {
		status = resp.StatusCode
		resp.Body.Close()
	}
	s.metrics.Record(time.Since(begin), status)
	return status
}

func (s *Simulator) PrintReport(results []roundResult) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("BOOKING RACE REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Racers per slot: %d\n", s.config.Racers)
	fmt.Printf("Slots contested: %d\n\n", len(results))

	violations := 0
	for _, r := range results {
		mark := "ok"
		if r.Success != 1 {
			mark = "VIOLATION"
			violations++
		}
		fmt.Printf("  %s %s  success=%d conflict=%d other=%d  %s\n",
			r.Slot.DoctorID, r.Slot.Datetime, r.Success, r.Conflict, r.Other, mark)
	}

	total := atomic.LoadInt64(&s.metrics.Total)
	if total > 0 {
		avg, p50, p95, max := s.metrics.Stats()
		fmt.Printf("\nRequests: %d (created=%d conflict=%d error=%d)\n",
			total, s.metrics.Success, s.metrics.Conflict, s.metrics.Error)
		fmt.Printf("Latency: avg=%s p50=%s p95=%s max=%s\n",
			avg.Round(time.Millisecond), p50.Round(time.Millisecond),
			p95.Round(time.Millisecond), max.Round(time.Millisecond))
	}

	if violations > 0 {
		fmt.Printf("\n%d slot(s) did not end with exactly one booking\n", violations)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
