package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrBlockedDayNotFound  = errors.New("blocked day not found")

	// ErrSlotTaken is the conflict signal: another live appointment already
	// holds the same room and start time. The store's unique index is the
	// authority; the service pre-check only produces it earlier.
	ErrSlotTaken = errors.New("slot already booked for this room and time")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Rooms (owned by an external admin surface; reads only)
	CountActiveRooms(ctx context.Context) (int, error)
	GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error)

	// Appointments
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// FindOccupying returns the live appointment holding (roomID, startTime),
	// ignoring excludeID, or ErrAppointmentNotFound when the slot is free.
	FindOccupying(ctx context.Context, roomID uuid.UUID, startTime time.Time, excludeID uuid.UUID) (*Appointment, error)
	InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Availability reads
	ListOccupyingInRange(ctx context.Context, start, end time.Time) ([]AppointmentDetail, error)
	ListAllInRange(ctx context.Context, start, end time.Time) ([]AppointmentDetail, error)
	CountByStatusInRange(ctx context.Context, start, end time.Time) (StatusCounts, error)

	// Completion worker
	FindConfirmedBefore(ctx context.Context, cutoff time.Time) ([]Appointment, error)

	// Blocked days
	ListBlockedDays(ctx context.Context, start, end time.Time) ([]BlockedDay, error)
	GetBlockedDay(ctx context.Context, day time.Time) (*BlockedDay, error)
	UpsertBlockedDay(ctx context.Context, bd BlockedDay) (*BlockedDay, error)
	DeleteBlockedDay(ctx context.Context, day time.Time) error
}

// Notifier publishes change events to the real-time channel. Delivery is
// fire-and-forget; a failed publish never fails the booking.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// Event is the payload pushed to connected clients when appointment data
// for a calendar date changes.
type Event struct {
	Name          string    `json:"event"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Date          string    `json:"date"` // YYYY-MM-DD, UTC
}

const (
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentUpdated   = "appointment.updated"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentDeleted   = "appointment.deleted"
)

// Confirmation carries everything the mail template needs.
type Confirmation struct {
	Recipient    string
	PatientName  string
	Date         string // YYYY-MM-DD
	Time         string // HH:MM
	Room         string
	Practitioner string
}

// Mailer sends the booking confirmation. Best-effort: errors are logged by
// the caller, never propagated to the client.
type Mailer interface {
	SendConfirmation(ctx context.Context, c Confirmation) error
}

// PractitionerDirectory is the identity collaborator used for the optional
// auto-provision sub-flow on create.
type PractitionerDirectory interface {
	// EnsurePractitioner finds an account by email or creates one with the
	// default password, returning a stable account id either way.
	EnsurePractitioner(ctx context.Context, name, email string) (uuid.UUID, error)
}
