package schedule

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"

	// StatusReserved predates the pending/confirmed split. Old rows still
	// carry it; it counts against capacity like a confirmed booking.
	StatusReserved AppointmentStatus = "reserved"
)

// Occupying reports whether an appointment in this status holds its slot
// against conflict checks and availability counts.
func (s AppointmentStatus) Occupying() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusReserved:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further status transition is allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusReserved:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is a legal status
// change: pending -> confirmed -> completed, with cancelled reachable from
// any live status. Legacy reserved behaves like confirmed.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	switch next {
	case StatusCancelled:
		return true
	case StatusConfirmed:
		return s == StatusPending
	case StatusCompleted:
		return s == StatusConfirmed || s == StatusReserved
	default:
		return false
	}
}

type RoomState string

const (
	RoomActive   RoomState = "active"
	RoomInactive RoomState = "inactive"
)

type Room struct {
	ID        uuid.UUID
	Name      string
	Code      string
	Location  *string
	State     RoomState
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID               uuid.UUID
	RoomID           uuid.UUID
	PractitionerName string
	PractitionerType *string
	PractitionerID   *uuid.UUID
	StartTime        time.Time
	EndTime          *time.Time
	PatientName      string
	PatientPhone     *string
	PatientEmail     *string
	PatientNotes     *string
	Cost             *string
	Status           AppointmentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AppointmentDetail is an appointment with its room name resolved for
// display. The join is read-only; stored data is never mutated.
type AppointmentDetail struct {
	Appointment
	RoomName string
}

// BlockedDay marks a calendar date the clinic does not operate on.
type BlockedDay struct {
	Day       time.Time // midnight UTC
	Reason    string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

// DayLoad is the occupied/available pair reported per calendar date.
type DayLoad struct {
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
}

// MonthAvailability aggregates slot load for one calendar month. PerDay is
// keyed by ISO date (YYYY-MM-DD); dates with no occupying appointments and
// no block are omitted.
type MonthAvailability struct {
	TotalRooms int                `json:"total_rooms"`
	PerDay     map[string]DayLoad `json:"per_day"`
}

// StatusCounts is the aggregate fed to the external report renderer.
type StatusCounts map[AppointmentStatus]int

// PeriodSummary is the read-only feed consumed by the report collaborator.
type PeriodSummary struct {
	From         time.Time
	To           time.Time
	Appointments []AppointmentDetail
	ByStatus     StatusCounts
}
