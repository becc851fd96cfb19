package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Day boundaries are computed at UTC midnight throughout: inclusive start,
// exclusive end. Mixing local and UTC arithmetic is what causes the
// off-by-one-day bugs around month boundaries, so UTC is canonical here.

// MonthlyAvailability reports occupied and available slot counts per
// calendar date of the given month. Capacity per day is
// activeRooms * slotsPerDay; a blocked day reports its real occupied count
// with zero availability.
func (s *Service) MonthlyAvailability(ctx context.Context, year, month int) (*MonthAvailability, error) {
	if year < 1000 || year > 9999 {
		return nil, validationf("year must be a 4-digit number, got %d", year)
	}
	if month < 1 || month > 12 {
		return nil, validationf("month must be between 1 and 12, got %d", month)
	}

	totalRooms, err := s.repo.CountActiveRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active rooms: %w", err)
	}

	out := &MonthAvailability{
		TotalRooms: totalRooms,
		PerDay:     make(map[string]DayLoad),
	}

	// No active rooms means nothing is bookable; an empty result, not an
	// error.
	if totalRooms == 0 {
		return out, nil
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	occupying, err := s.repo.ListOccupyingInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list appointments for month: %w", err)
	}

	capacity := totalRooms * s.slotsPerDay
	for _, appt := range occupying {
		key := dateKey(appt.StartTime)
		load := out.PerDay[key]
		load.Occupied++
		load.Available = capacity - load.Occupied
		if load.Available < 0 {
			load.Available = 0
		}
		out.PerDay[key] = load
	}

	blocked, err := s.repo.ListBlockedDays(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list blocked days: %w", err)
	}
	for _, bd := range blocked {
		key := dateKey(bd.Day)
		load := out.PerDay[key]
		load.Available = 0
		out.PerDay[key] = load
	}

	return out, nil
}

// DailyAppointments lists the occupying appointments of one calendar date,
// ascending by start time, with room names resolved.
func (s *Service) DailyAppointments(ctx context.Context, isoDate string) ([]AppointmentDetail, error) {
	day, err := parseISODate(isoDate)
	if err != nil {
		return nil, err
	}

	start := day
	end := start.AddDate(0, 0, 1)

	details, err := s.repo.ListOccupyingInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list appointments for day: %w", err)
	}

	return details, nil
}

// PeriodSummary assembles the read-only feed the report renderer consumes:
// every appointment in [from, to) plus counts by status, cancelled rows
// included.
func (s *Service) PeriodSummary(ctx context.Context, fromISO, toISO string) (*PeriodSummary, error) {
	from, err := parseISODate(fromISO)
	if err != nil {
		return nil, err
	}
	to, err := parseISODate(toISO)
	if err != nil {
		return nil, err
	}
	// The upper bound is exclusive at the start of the day after "to", so a
	// single-day summary with from == to still covers that whole day.
	to = to.AddDate(0, 0, 1)
	if !to.After(from) {
		return nil, validationf("to date must not be before from date")
	}

	appts, err := s.repo.ListAllInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments for period: %w", err)
	}

	counts, err := s.repo.CountByStatusInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}

	return &PeriodSummary{
		From:         from,
		To:           to,
		Appointments: appts,
		ByStatus:     counts,
	}, nil
}

// BlockedDays lists blocks falling within the given month.
func (s *Service) BlockedDays(ctx context.Context, year, month int) ([]BlockedDay, error) {
	if year < 1000 || year > 9999 {
		return nil, validationf("year must be a 4-digit number, got %d", year)
	}
	if month < 1 || month > 12 {
		return nil, validationf("month must be between 1 and 12, got %d", month)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	days, err := s.repo.ListBlockedDays(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list blocked days: %w", err)
	}
	return days, nil
}

// BlockDay marks a date as non-operating. Upsert semantics: blocking an
// already-blocked date updates its reason.
func (s *Service) BlockDay(ctx context.Context, isoDate, reason string, createdBy *uuid.UUID) (*BlockedDay, error) {
	day, err := parseISODate(isoDate)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "unavailable"
	}

	out, err := s.repo.UpsertBlockedDay(ctx, BlockedDay{Day: day, Reason: reason, CreatedBy: createdBy})
	if err != nil {
		return nil, fmt.Errorf("block day: %w", err)
	}
	return out, nil
}

func (s *Service) UnblockDay(ctx context.Context, isoDate string) error {
	day, err := parseISODate(isoDate)
	if err != nil {
		return err
	}
	return s.repo.DeleteBlockedDay(ctx, day)
}

func parseISODate(isoDate string) (time.Time, error) {
	if isoDate == "" {
		return time.Time{}, validationf("date is required")
	}
	day, err := time.ParseInLocation("2006-01-02", isoDate, time.UTC)
	if err != nil {
		return time.Time{}, validationf("date must be YYYY-MM-DD, got %q", isoDate)
	}
	return day, nil
}
