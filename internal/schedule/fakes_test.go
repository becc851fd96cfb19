package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository. Insert and update enforce the same
// one-live-booking-per-(room, start) rule as the Postgres unique index, so
// tests can exercise the store-level conflict path as well as the pre-check.
type fakeRepo struct {
	rooms   map[uuid.UUID]*Room
	appts   map[uuid.UUID]*Appointment
	blocked map[string]BlockedDay

	findOccupyingCalls int
	// insertConflict forces the next insert to fail with ErrSlotTaken even
	// though the pre-check saw a free slot, simulating a lost race.
	insertConflict bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rooms:   make(map[uuid.UUID]*Room),
		appts:   make(map[uuid.UUID]*Appointment),
		blocked: make(map[string]BlockedDay),
	}
}

func (f *fakeRepo) addRoom(name string, state RoomState) uuid.UUID {
	id := uuid.New()
	f.rooms[id] = &Room{
		ID:    id,
		Name:  name,
		Code:  "C-" + id.String()[:4],
		State: state,
	}
	return id
}

func (f *fakeRepo) addAppointment(roomID uuid.UUID, start time.Time, status AppointmentStatus) *Appointment {
	a := &Appointment{
		ID:               uuid.New(),
		RoomID:           roomID,
		PractitionerName: "Dr. Test",
		StartTime:        start.UTC(),
		PatientName:      "Patient",
		Status:           status,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	f.appts[a.ID] = a
	return a
}

func (f *fakeRepo) CountActiveRooms(context.Context) (int, error) {
	n := 0
	for _, r := range f.rooms {
		if r.State == RoomActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) GetRoomByID(_ context.Context, id uuid.UUID) (*Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) FindOccupying(_ context.Context, roomID uuid.UUID, start time.Time, excludeID uuid.UUID) (*Appointment, error) {
	f.findOccupyingCalls++
	for _, a := range f.appts {
		if a.RoomID == roomID && a.StartTime.Equal(start) && a.Status != StatusCancelled && a.ID != excludeID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeRepo) slotHeld(roomID uuid.UUID, start time.Time, excludeID uuid.UUID) bool {
	for _, a := range f.appts {
		if a.RoomID == roomID && a.StartTime.Equal(start) && a.Status != StatusCancelled && a.ID != excludeID {
			return true
		}
	}
	return false
}

func (f *fakeRepo) InsertAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	if f.insertConflict {
		f.insertConflict = false
		return nil, ErrSlotTaken
	}
	if a.Status != StatusCancelled && f.slotHeld(a.RoomID, a.StartTime, uuid.Nil) {
		return nil, ErrSlotTaken
	}

	cp := *a
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	f.appts[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (f *fakeRepo) UpdateAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	if _, ok := f.appts[a.ID]; !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != StatusCancelled && f.slotHeld(a.RoomID, a.StartTime, a.ID) {
		return nil, ErrSlotTaken
	}

	cp := *a
	cp.UpdatedAt = time.Now().UTC()
	f.appts[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (f *fakeRepo) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	if _, ok := f.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(f.appts, id)
	return nil
}

func (f *fakeRepo) listRange(start, end time.Time, occupyingOnly bool) []AppointmentDetail {
	var out []AppointmentDetail
	for _, a := range f.appts {
		if a.StartTime.Before(start) || !a.StartTime.Before(end) {
			continue
		}
		if occupyingOnly && !a.Status.Occupying() {
			continue
		}
		d := AppointmentDetail{Appointment: *a}
		if r, ok := f.rooms[a.RoomID]; ok {
			d.RoomName = r.Name
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func (f *fakeRepo) ListOccupyingInRange(_ context.Context, start, end time.Time) ([]AppointmentDetail, error) {
	return f.listRange(start, end, true), nil
}

func (f *fakeRepo) ListAllInRange(_ context.Context, start, end time.Time) ([]AppointmentDetail, error) {
	return f.listRange(start, end, false), nil
}

func (f *fakeRepo) CountByStatusInRange(_ context.Context, start, end time.Time) (StatusCounts, error) {
	counts := make(StatusCounts)
	for _, a := range f.appts {
		if a.StartTime.Before(start) || !a.StartTime.Before(end) {
			continue
		}
		counts[a.Status]++
	}
	return counts, nil
}

func (f *fakeRepo) FindConfirmedBefore(_ context.Context, cutoff time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appts {
		if (a.Status == StatusConfirmed || a.Status == StatusReserved) && a.StartTime.Before(cutoff) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListBlockedDays(_ context.Context, start, end time.Time) ([]BlockedDay, error) {
	var out []BlockedDay
	for _, bd := range f.blocked {
		if !bd.Day.Before(start) && bd.Day.Before(end) {
			out = append(out, bd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (f *fakeRepo) GetBlockedDay(_ context.Context, day time.Time) (*BlockedDay, error) {
	bd, ok := f.blocked[dateKey(day)]
	if !ok {
		return nil, ErrBlockedDayNotFound
	}
	return &bd, nil
}

func (f *fakeRepo) UpsertBlockedDay(_ context.Context, bd BlockedDay) (*BlockedDay, error) {
	bd.CreatedAt = time.Now().UTC()
	f.blocked[dateKey(bd.Day)] = bd
	return &bd, nil
}

func (f *fakeRepo) DeleteBlockedDay(_ context.Context, day time.Time) error {
	key := dateKey(day)
	if _, ok := f.blocked[key]; !ok {
		return ErrBlockedDayNotFound
	}
	delete(f.blocked, key)
	return nil
}

// Collaborator doubles

type fakeNotifier struct {
	events []Event
	err    error
}

func (f *fakeNotifier) Publish(_ context.Context, ev Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type fakeMailer struct {
	sent []Confirmation
	err  error
}

func (f *fakeMailer) SendConfirmation(_ context.Context, c Confirmation) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, c)
	return nil
}

type fakeDirectory struct {
	accounts map[string]uuid.UUID
	calls    int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{accounts: make(map[string]uuid.UUID)}
}

func (f *fakeDirectory) EnsurePractitioner(_ context.Context, _, email string) (uuid.UUID, error) {
	f.calls++
	if id, ok := f.accounts[email]; ok {
		return id, nil
	}
	id := uuid.New()
	f.accounts[email] = id
	return id, nil
}
