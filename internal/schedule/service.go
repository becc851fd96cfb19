package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// ValidationError marks missing or malformed caller input. No state is
// changed when one is returned.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

type Service struct {
	repo        Repository
	notifier    Notifier
	mailer      Mailer
	directory   PractitionerDirectory
	slotsPerDay int
	log         zerolog.Logger
}

func NewService(repo Repository, notifier Notifier, mailer Mailer, directory PractitionerDirectory, slotsPerDay int, log zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		notifier:    notifier,
		mailer:      mailer,
		directory:   directory,
		slotsPerDay: slotsPerDay,
		log:         log.With().Str("component", "schedule").Logger(),
	}
}

type CreateInput struct {
	RoomID           uuid.UUID
	PractitionerName string
	PractitionerType *string
	PractitionerID   *uuid.UUID
	// ProvisionEmail, when set by an administrative caller and no
	// practitioner id was supplied, triggers find-or-create of a
	// practitioner account under that address.
	ProvisionEmail string
	StartTime      time.Time
	EndTime        *time.Time
	PatientName    string
	PatientPhone   *string
	PatientEmail   *string
	PatientNotes   *string
	Cost           *string
	Status         AppointmentStatus
}

// CreateAppointment books a room for an exact start time. The conflict
// pre-check produces a clean error before the write; the store's unique
// index remains the authority if two requests race past it.
func (s *Service) CreateAppointment(ctx context.Context, in CreateInput) (*Appointment, error) {
	if in.RoomID == uuid.Nil {
		return nil, validationf("room_id is required")
	}
	if in.PatientName == "" {
		return nil, validationf("patient name is required")
	}
	if in.PractitionerName == "" {
		return nil, validationf("practitioner name is required")
	}
	if in.StartTime.IsZero() {
		return nil, validationf("start_time is required")
	}

	status := in.Status
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, validationf("invalid status: %s", status)
	}
	if !status.Occupying() {
		return nil, validationf("new appointment cannot start in status %s", status)
	}

	start := normalizeStart(in.StartTime)

	room, err := s.repo.GetRoomByID(ctx, in.RoomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load room: %w", err)
	}
	if room.State != RoomActive {
		return nil, validationf("room %s is not active", room.Code)
	}

	if err := s.checkConflict(ctx, in.RoomID, start, uuid.Nil); err != nil {
		return nil, err
	}

	practitionerID := in.PractitionerID
	if practitionerID == nil && in.ProvisionEmail != "" && s.directory != nil {
		id, err := s.directory.EnsurePractitioner(ctx, in.PractitionerName, in.ProvisionEmail)
		if err != nil {
			return nil, fmt.Errorf("provision practitioner: %w", err)
		}
		practitionerID = &id
	}

	appt := &Appointment{
		RoomID:           in.RoomID,
		PractitionerName: in.PractitionerName,
		PractitionerType: in.PractitionerType,
		PractitionerID:   practitionerID,
		StartTime:        start,
		EndTime:          in.EndTime,
		PatientName:      in.PatientName,
		PatientPhone:     in.PatientPhone,
		PatientEmail:     in.PatientEmail,
		PatientNotes:     in.PatientNotes,
		Cost:             in.Cost,
		Status:           status,
	}

	created, err := s.repo.InsertAppointment(ctx, appt)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	s.publish(ctx, EventAppointmentCreated, created)
	s.sendConfirmation(ctx, created, room.Name)

	return created, nil
}

type UpdateInput struct {
	RoomID           *uuid.UUID
	PractitionerName *string
	PractitionerType *string
	PractitionerID   *uuid.UUID
	StartTime        *time.Time
	EndTime          *time.Time
	PatientName      *string
	PatientPhone     *string
	PatientEmail     *string
	PatientNotes     *string
	Cost             *string
	Status           *AppointmentStatus
}

// UpdateAppointment merges the supplied fields into an existing record.
// Omitted fields keep their prior values. The conflict check is re-run only
// when the room or start time actually changes, excluding the record itself.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	existing, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	merged := *existing
	if in.RoomID != nil {
		merged.RoomID = *in.RoomID
	}
	if in.PractitionerName != nil {
		if *in.PractitionerName == "" {
			return nil, validationf("practitioner name cannot be empty")
		}
		merged.PractitionerName = *in.PractitionerName
	}
	if in.PractitionerType != nil {
		merged.PractitionerType = in.PractitionerType
	}
	if in.PractitionerID != nil {
		merged.PractitionerID = in.PractitionerID
	}
	if in.StartTime != nil {
		merged.StartTime = normalizeStart(*in.StartTime)
	}
	if in.EndTime != nil {
		merged.EndTime = in.EndTime
	}
	if in.PatientName != nil {
		if *in.PatientName == "" {
			return nil, validationf("patient name cannot be empty")
		}
		merged.PatientName = *in.PatientName
	}
	if in.PatientPhone != nil {
		merged.PatientPhone = in.PatientPhone
	}
	if in.PatientEmail != nil {
		merged.PatientEmail = in.PatientEmail
	}
	if in.PatientNotes != nil {
		merged.PatientNotes = in.PatientNotes
	}
	if in.Cost != nil {
		merged.Cost = in.Cost
	}
	if in.Status != nil {
		next := *in.Status
		if !next.Valid() {
			return nil, validationf("invalid status: %s", next)
		}
		if !existing.Status.CanTransition(next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, existing.Status, next)
		}
		merged.Status = next
	}

	slotChanged := merged.RoomID != existing.RoomID || !merged.StartTime.Equal(existing.StartTime)
	if slotChanged {
		room, err := s.repo.GetRoomByID(ctx, merged.RoomID)
		if err != nil {
			if errors.Is(err, ErrRoomNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("load room: %w", err)
		}
		if room.State != RoomActive {
			return nil, validationf("room %s is not active", room.Code)
		}
		if merged.Status.Occupying() {
			if err := s.checkConflict(ctx, merged.RoomID, merged.StartTime, id); err != nil {
				return nil, err
			}
		}
	}

	updated, err := s.repo.UpdateAppointment(ctx, &merged)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) || errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.publish(ctx, EventAppointmentUpdated, updated)

	return updated, nil
}

// CancelAppointment soft-cancels: the row stays for reporting, the slot is
// freed for future bookings.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	existing, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if existing.Status == StatusCancelled {
		return existing, nil
	}
	if !existing.Status.CanTransition(StatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, existing.Status, StatusCancelled)
	}

	cancelled := *existing
	cancelled.Status = StatusCancelled

	updated, err := s.repo.UpdateAppointment(ctx, &cancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.publish(ctx, EventAppointmentCancelled, updated)

	return updated, nil
}

// DeleteAppointment removes the record permanently. Administrative-only
// path; the change event still fires so cached calendars invalidate.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("load appointment: %w", err)
	}

	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("delete appointment: %w", err)
	}

	s.publish(ctx, EventAppointmentDeleted, existing)

	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// CompleteElapsed marks confirmed appointments whose start time fell before
// the current UTC day as completed. Called periodically by the worker.
func (s *Service) CompleteElapsed(ctx context.Context, now time.Time) error {
	cutoff := startOfDayUTC(now)

	elapsed, err := s.repo.FindConfirmedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find elapsed appointments: %w", err)
	}

	for _, appt := range elapsed {
		done := appt
		done.Status = StatusCompleted
		if _, err := s.repo.UpdateAppointment(ctx, &done); err != nil {
			s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to complete appointment")
			continue
		}
	}

	if n := len(elapsed); n > 0 {
		s.log.Info().Int("count", n).Msg("completed elapsed appointments")
	}

	return nil
}

// checkConflict is the read-side slot check. A found record means the slot
// is held; that is an expected outcome, reported as ErrSlotTaken, never as
// a storage failure.
func (s *Service) checkConflict(ctx context.Context, roomID uuid.UUID, startTime time.Time, excludeID uuid.UUID) error {
	_, err := s.repo.FindOccupying(ctx, roomID, startTime, excludeID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil
		}
		return fmt.Errorf("conflict check: %w", err)
	}
	return ErrSlotTaken
}

// publish pushes the change event to the real-time channel. Fire and
// forget: the booking stands even if the channel is down.
func (s *Service) publish(ctx context.Context, name string, appt *Appointment) {
	if s.notifier == nil {
		return
	}

	ev := Event{
		Name:          name,
		AppointmentID: appt.ID,
		Date:          dateKey(appt.StartTime),
	}

	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", name).Str("date", ev.Date).Msg("event publish failed")
	}
}

// sendConfirmation emails the patient if an address is on file. Failures
// never unwind the persisted booking.
func (s *Service) sendConfirmation(ctx context.Context, appt *Appointment, roomName string) {
	if s.mailer == nil || appt.PatientEmail == nil || *appt.PatientEmail == "" {
		return
	}

	c := Confirmation{
		Recipient:    *appt.PatientEmail,
		PatientName:  appt.PatientName,
		Date:         dateKey(appt.StartTime),
		Time:         appt.StartTime.UTC().Format("15:04"),
		Room:         roomName,
		Practitioner: appt.PractitionerName,
	}

	if err := s.mailer.SendConfirmation(ctx, c); err != nil {
		s.log.Warn().Err(err).Str("recipient", c.Recipient).Msg("confirmation mail failed")
	}
}

// normalizeStart pins the booking instant to the minute, in UTC. All slot
// comparisons and day-boundary math run on this canonical form.
func normalizeStart(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

func startOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
