package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mediwork/agenda/internal/schedule"
)

func getAvailabilityHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		yearStr := r.URL.Query().Get("year")
		monthStr := r.URL.Query().Get("month")
		if yearStr == "" || monthStr == "" {
			writeError(w, http.StatusBadRequest, "missing_parameters", "year and month query parameters are required")
			return
		}

		year, err := strconv.Atoi(yearStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_year", "year must be a number")
			return
		}
		month, err := strconv.Atoi(monthStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_month", "month must be a number")
			return
		}

		avail, err := svc.MonthlyAvailability(r.Context(), year, month)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, avail)
	}
}

func listDailyAppointmentsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing_parameters", "date query parameter is required")
			return
		}

		details, err := svc.DailyAppointments(r.Context(), date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponses(details))
	}
}

func getSummaryHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")
		if from == "" || to == "" {
			writeError(w, http.StatusBadRequest, "missing_parameters", "from and to query parameters are required")
			return
		}

		summary, err := svc.PeriodSummary(r.Context(), from, to)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		byStatus := make(map[string]int, len(summary.ByStatus))
		for status, n := range summary.ByStatus {
			byStatus[string(status)] = n
		}

		writeJSON(w, http.StatusOK, SummaryResponse{
			From:         summary.From.Format("2006-01-02"),
			To:           summary.To.Format("2006-01-02"),
			Appointments: toDetailResponses(summary.Appointments),
			ByStatus:     byStatus,
		})
	}
}

func getAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func createAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		roomID, err := uuid.Parse(req.RoomID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_room_id", "room_id must be a valid UUID")
			return
		}

		startTime, err := parseTimestamp(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return
		}

		in := schedule.CreateInput{
			RoomID:           roomID,
			PractitionerName: req.PractitionerName,
			PractitionerType: req.PractitionerType,
			ProvisionEmail:   req.ProvisionEmail,
			StartTime:        startTime,
			PatientName:      req.PatientName,
			PatientPhone:     req.PatientPhone,
			PatientEmail:     req.PatientEmail,
			PatientNotes:     req.PatientNotes,
			Cost:             req.Cost,
			Status:           schedule.AppointmentStatus(req.Status),
		}

		if req.PractitionerID != nil {
			pid, err := uuid.Parse(*req.PractitionerID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
				return
			}
			in.PractitionerID = &pid
		}

		if req.EndTime != nil {
			endTime, err := parseTimestamp(*req.EndTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be RFC 3339")
				return
			}
			in.EndTime = &endTime
		}

		appt, err := svc.CreateAppointment(r.Context(), in)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := schedule.UpdateInput{
			PractitionerName: req.PractitionerName,
			PractitionerType: req.PractitionerType,
			PatientName:      req.PatientName,
			PatientPhone:     req.PatientPhone,
			PatientEmail:     req.PatientEmail,
			PatientNotes:     req.PatientNotes,
			Cost:             req.Cost,
		}

		if req.RoomID != nil {
			roomID, err := uuid.Parse(*req.RoomID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_room_id", "room_id must be a valid UUID")
				return
			}
			in.RoomID = &roomID
		}

		if req.PractitionerID != nil {
			pid, err := uuid.Parse(*req.PractitionerID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
				return
			}
			in.PractitionerID = &pid
		}

		if req.StartTime != nil {
			startTime, err := parseTimestamp(*req.StartTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
				return
			}
			in.StartTime = &startTime
		}

		if req.EndTime != nil {
			endTime, err := parseTimestamp(*req.EndTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be RFC 3339")
				return
			}
			in.EndTime = &endTime
		}

		if req.Status != nil {
			status := schedule.AppointmentStatus(*req.Status)
			in.Status = &status
		}

		appt, err := svc.UpdateAppointment(r.Context(), id, in)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.CancelAppointment(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listBlockedDaysHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		yearStr := r.URL.Query().Get("year")
		monthStr := r.URL.Query().Get("month")
		if yearStr == "" || monthStr == "" {
			writeError(w, http.StatusBadRequest, "missing_parameters", "year and month query parameters are required")
			return
		}

		year, err := strconv.Atoi(yearStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_year", "year must be a number")
			return
		}
		month, err := strconv.Atoi(monthStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_month", "month must be a number")
			return
		}

		days, err := svc.BlockedDays(r.Context(), year, month)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]BlockedDayResponse, 0, len(days))
		for _, d := range days {
			out = append(out, BlockedDayResponse{
				Date:      d.Day.Format("2006-01-02"),
				Reason:    d.Reason,
				CreatedBy: d.CreatedBy,
				CreatedAt: d.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func blockDayHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BlockDayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var createdBy *uuid.UUID
		if req.CreatedBy != nil {
			id, err := uuid.Parse(*req.CreatedBy)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_created_by", "created_by must be a valid UUID")
				return
			}
			createdBy = &id
		}

		bd, err := svc.BlockDay(r.Context(), req.Date, req.Reason, createdBy)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BlockedDayResponse{
			Date:      bd.Day.Format("2006-01-02"),
			Reason:    bd.Reason,
			CreatedBy: bd.CreatedBy,
			CreatedAt: bd.CreatedAt,
		})
	}
}

func unblockDayHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := chi.URLParam(r, "date")

		if err := svc.UnblockDay(r.Context(), date); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func handleServiceError(w http.ResponseWriter, err error) {
	var vErr *schedule.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation_error", vErr.Error())
	case errors.Is(err, schedule.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room_not_found", err.Error())
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrBlockedDayNotFound):
		writeError(w, http.StatusNotFound, "blocked_day_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "the room is already booked for this time, choose another slot")
	case errors.Is(err, schedule.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error, please retry")
	}
}
