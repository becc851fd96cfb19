package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediwork/agenda/internal/db"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.ApplySchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	rootCtx := context.Background()

	rooms, err := seedRooms(rootCtx, pool, 6)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed rooms")
	}
	if err := seedPractitioners(rootCtx, pool, 20); err != nil {
		logger.Fatal().Err(err).Msg("seed practitioners")
	}
	if err := seedAppointments(rootCtx, pool, rooms, 30); err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}

	logger.Info().Msg("seed complete")
}

func seedRooms(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	logger.Info().Int("count", count).Msg("seeding rooms")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		code := fmt.Sprintf("C-%03d", i+1)
		name := fmt.Sprintf("Consultation Room %d", i+1)
		location := fmt.Sprintf("Floor %d", i/3+1)

		_, err := tx.Exec(ctx, `
			INSERT INTO rooms (id, name, code, location, state, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'active', now(), now())
			ON CONFLICT (code) DO NOTHING
		`, id, name, code, location)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info().Msg("rooms seeded")
	return ids, nil
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int) error {
	logger.Info().Int("count", count).Msg("seeding practitioner accounts")

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		email := gofakeit.Email()

		_, err := tx.Exec(ctx, `
			INSERT INTO accounts (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'practitioner', now(), now())
			ON CONFLICT (email) DO NOTHING
		`, id, name, email, string(hash))
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info().Msg("practitioner accounts seeded")
	return nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, rooms []uuid.UUID, days int) error {
	logger.Info().Int("days", days).Msg("seeding appointments")

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
	}
	statuses := []string{"pending", "confirmed", "confirmed", "cancelled"}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for day := 0; day < days; day++ {
		for _, roomID := range rooms {
			// A few bookings per room per day, on the hourly grid.
			for _, hour := range pickHours(3) {
				start := startOfDay.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
				end := start.Add(time.Hour)
				status := statuses[gofakeit.Number(0, len(statuses)-1)]

				_, err := tx.Exec(ctx, `
					INSERT INTO appointments (
						id, room_id, practitioner_name, practitioner_type, start_time, end_time,
						patient_name, patient_phone, status, created_at, updated_at
					)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
				`, uuid.New(), roomID, gofakeit.Name(),
					specialties[gofakeit.Number(0, len(specialties)-1)],
					start, end, gofakeit.Name(), gofakeit.Phone(), status)
				if err != nil {
					return err
				}
				inserted++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info().Int("count", inserted).Msg("appointments seeded")
	return nil
}

// pickHours returns n distinct hours within the 08:00-21:00 operating
// window.
func pickHours(n int) []int {
	hours := make(map[int]struct{}, n)
	for len(hours) < n {
		hours[gofakeit.Number(8, 21)] = struct{}{}
	}
	out := make([]int, 0, n)
	for h := range hours {
		out = append(out, h)
	}
	return out
}
