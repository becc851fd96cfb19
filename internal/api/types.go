package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediwork/agenda/internal/schedule"
)

type CreateAppointmentRequest struct {
	RoomID           string  `json:"room_id"`
	PractitionerName string  `json:"practitioner_name"`
	PractitionerType *string `json:"practitioner_type,omitempty"`
	PractitionerID   *string `json:"practitioner_id,omitempty"`
	ProvisionEmail   string  `json:"provision_email,omitempty"`
	StartTime        string  `json:"start_time"`
	EndTime          *string `json:"end_time,omitempty"`
	PatientName      string  `json:"patient_name"`
	PatientPhone     *string `json:"patient_phone,omitempty"`
	PatientEmail     *string `json:"patient_email,omitempty"`
	PatientNotes     *string `json:"patient_notes,omitempty"`
	Cost             *string `json:"cost,omitempty"`
	Status           string  `json:"status,omitempty"`
}

type UpdateAppointmentRequest struct {
	RoomID           *string `json:"room_id,omitempty"`
	PractitionerName *string `json:"practitioner_name,omitempty"`
	PractitionerType *string `json:"practitioner_type,omitempty"`
	PractitionerID   *string `json:"practitioner_id,omitempty"`
	StartTime        *string `json:"start_time,omitempty"`
	EndTime          *string `json:"end_time,omitempty"`
	PatientName      *string `json:"patient_name,omitempty"`
	PatientPhone     *string `json:"patient_phone,omitempty"`
	PatientEmail     *string `json:"patient_email,omitempty"`
	PatientNotes     *string `json:"patient_notes,omitempty"`
	Cost             *string `json:"cost,omitempty"`
	Status           *string `json:"status,omitempty"`
}

type AppointmentResponse struct {
	ID               uuid.UUID  `json:"id"`
	RoomID           uuid.UUID  `json:"room_id"`
	RoomName         string     `json:"room_name,omitempty"`
	PractitionerName string     `json:"practitioner_name"`
	PractitionerType *string    `json:"practitioner_type,omitempty"`
	PractitionerID   *uuid.UUID `json:"practitioner_id,omitempty"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	PatientName      string     `json:"patient_name"`
	PatientPhone     *string    `json:"patient_phone,omitempty"`
	PatientEmail     *string    `json:"patient_email,omitempty"`
	PatientNotes     *string    `json:"patient_notes,omitempty"`
	Cost             *string    `json:"cost,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toAppointmentResponse(a *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:               a.ID,
		RoomID:           a.RoomID,
		PractitionerName: a.PractitionerName,
		PractitionerType: a.PractitionerType,
		PractitionerID:   a.PractitionerID,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		PatientName:      a.PatientName,
		PatientPhone:     a.PatientPhone,
		PatientEmail:     a.PatientEmail,
		PatientNotes:     a.PatientNotes,
		Cost:             a.Cost,
		Status:           string(a.Status),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toDetailResponse(d schedule.AppointmentDetail) AppointmentResponse {
	resp := toAppointmentResponse(&d.Appointment)
	resp.RoomName = d.RoomName
	return resp
}

func toDetailResponses(details []schedule.AppointmentDetail) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toDetailResponse(d))
	}
	return out
}

type SummaryResponse struct {
	From         string                `json:"from"`
	To           string                `json:"to"` // exclusive
	Appointments []AppointmentResponse `json:"appointments"`
	ByStatus     map[string]int        `json:"by_status"`
}

type BlockDayRequest struct {
	Date      string  `json:"date"`
	Reason    string  `json:"reason,omitempty"`
	CreatedBy *string `json:"created_by,omitempty"`
}

type BlockedDayResponse struct {
	Date      string     `json:"date"`
	Reason    string     `json:"reason"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
