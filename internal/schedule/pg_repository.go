package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, room_id, practitioner_name, practitioner_type, practitioner_id,
	start_time, end_time, patient_name, patient_phone, patient_email,
	patient_notes, cost, status, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.RoomID,
		&a.PractitionerName,
		&a.PractitionerType,
		&a.PractitionerID,
		&a.StartTime,
		&a.EndTime,
		&a.PatientName,
		&a.PatientPhone,
		&a.PatientEmail,
		&a.PatientNotes,
		&a.Cost,
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

	return &a, nil
}

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail

	err := row.Scan(
		&d.ID,
		&d.RoomID,
		&d.PractitionerName,
		&d.PractitionerType,
		&d.PractitionerID,
		&d.StartTime,
		&d.EndTime,
		&d.PatientName,
		&d.PatientPhone,
		&d.PatientEmail,
		&d.PatientNotes,
		&d.Cost,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.RoomName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room

	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Code,
		&r.Location,
		&r.State,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return &r, nil
}

// isSlotConflict reports whether err is the unique index on
// (room_id, start_time) rejecting a second live booking.
func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == "appointments_room_start_live_uq"
}

// Rooms

func (r *PgRepository) CountActiveRooms(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM rooms WHERE state = 'active'
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active rooms: %w", err)
	}
	return n, nil
}

func (r *PgRepository) GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, code, location, state, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`, id)
	return scanRoom(row)
}

// Appointments

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) FindOccupying(ctx context.Context, roomID uuid.UUID, startTime time.Time, excludeID uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE room_id = $1
		  AND start_time = $2
		  AND status <> 'cancelled'
		  AND id <> $3
	`, roomID, startTime, excludeID)
	return scanAppointment(row)
}

func (r *PgRepository) InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, room_id, practitioner_name, practitioner_type, practitioner_id,
			start_time, end_time, patient_name, patient_phone, patient_email,
			patient_notes, cost, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.RoomID, a.PractitionerName, a.PractitionerType, a.PractitionerID,
		a.StartTime, a.EndTime, a.PatientName, a.PatientPhone, a.PatientEmail,
		a.PatientNotes, a.Cost, a.Status)

	created, err := scanAppointment(row)
	if err != nil {
		if isSlotConflict(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET room_id = $2,
		    practitioner_name = $3,
		    practitioner_type = $4,
		    practitioner_id = $5,
		    start_time = $6,
		    end_time = $7,
		    patient_name = $8,
		    patient_phone = $9,
		    patient_email = $10,
		    patient_notes = $11,
		    cost = $12,
		    status = $13,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, a.ID, a.RoomID, a.PractitionerName, a.PractitionerType, a.PractitionerID,
		a.StartTime, a.EndTime, a.PatientName, a.PatientPhone, a.PatientEmail,
		a.PatientNotes, a.Cost, a.Status)

	updated, err := scanAppointment(row)
	if err != nil {
		if isSlotConflict(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// Availability reads

const detailQuery = `
	SELECT a.id, a.room_id, a.practitioner_name, a.practitioner_type, a.practitioner_id,
	       a.start_time, a.end_time, a.patient_name, a.patient_phone, a.patient_email,
	       a.patient_notes, a.cost, a.status, a.created_at, a.updated_at,
	       r.name AS room_name
	FROM appointments a
	JOIN rooms r ON r.id = a.room_id
	WHERE a.start_time >= $1 AND a.start_time < $2`

func (r *PgRepository) ListOccupyingInRange(ctx context.Context, start, end time.Time) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailQuery+`
		  AND a.status IN ('pending', 'confirmed', 'reserved')
		ORDER BY a.start_time ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func (r *PgRepository) ListAllInRange(ctx context.Context, start, end time.Time) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailQuery+`
		ORDER BY a.start_time ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
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

func (r *PgRepository) CountByStatusInRange(ctx context.Context, start, end time.Time) (StatusCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM appointments
		WHERE start_time >= $1 AND start_time < $2
		GROUP BY status
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(StatusCounts)
	for rows.Next() {
		var status AppointmentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// Completion worker

func (r *PgRepository) FindConfirmedBefore(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('confirmed', 'reserved')
		  AND start_time < $1
	`, cutoff)
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

// Blocked days

func (r *PgRepository) ListBlockedDays(ctx context.Context, start, end time.Time) ([]BlockedDay, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, reason, created_by, created_at
		FROM blocked_days
		WHERE day >= $1 AND day < $2
		ORDER BY day ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlockedDay
	for rows.Next() {
		var bd BlockedDay
		if err := rows.Scan(&bd.Day, &bd.Reason, &bd.CreatedBy, &bd.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, bd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetBlockedDay(ctx context.Context, day time.Time) (*BlockedDay, error) {
	var bd BlockedDay
	err := r.pool.QueryRow(ctx, `
		SELECT day, reason, created_by, created_at
		FROM blocked_days
		WHERE day = $1
	`, day).Scan(&bd.Day, &bd.Reason, &bd.CreatedBy, &bd.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlockedDayNotFound
		}
		return nil, err
	}
	return &bd, nil
}

func (r *PgRepository) UpsertBlockedDay(ctx context.Context, bd BlockedDay) (*BlockedDay, error) {
	var out BlockedDay
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blocked_days (day, reason, created_by, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (day) DO UPDATE
		SET reason = EXCLUDED.reason
		RETURNING day, reason, created_by, created_at
	`, bd.Day, bd.Reason, bd.CreatedBy).Scan(&out.Day, &out.Reason, &out.CreatedBy, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert blocked day: %w", err)
	}
	return &out, nil
}

func (r *PgRepository) DeleteBlockedDay(ctx context.Context, day time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_days WHERE day = $1
	`, day)
	if err != nil {
		return fmt.Errorf("delete blocked day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlockedDayNotFound
	}
	return nil
}
