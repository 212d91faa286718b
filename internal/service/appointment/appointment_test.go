package appointment

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/internal/identity"
	"github.com/Alijeyrad/thera_backend/internal/store"
)

// fakeStore serialises bookings the way the therapist row lock does.
type fakeStore struct {
	mu           sync.Mutex
	profiles     map[uuid.UUID]*domain.Profile
	assignments  map[uuid.UUID]uuid.UUID
	appointments map[uuid.UUID]*domain.Appointment
	lastFilter   store.AppointmentFilter
	// beforeTransition runs under the lock ahead of the status check.
	beforeTransition func(a *domain.Appointment)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:     map[uuid.UUID]*domain.Profile{},
		assignments:  map[uuid.UUID]uuid.UUID{},
		appointments: map[uuid.UUID]*domain.Appointment{},
	}
}

func (f *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) CurrentAssignment(_ context.Context, clientID uuid.UUID) (*domain.Assignment, error) {
	th, ok := f.assignments[clientID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &domain.Assignment{ClientID: clientID, TherapistID: th}, nil
}

func (f *fakeStore) BookAppointment(_ context.Context, in store.NewAppointment) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot := domain.Slot{Start: in.Start, End: in.End}
	for _, a := range f.appointments {
		if a.TherapistID == in.TherapistID && a.Status.Active() && a.Slot().Overlaps(slot) {
			return nil, store.ErrOverlap
		}
	}
	a := &domain.Appointment{
		ID: uuid.New(), ClientID: in.ClientID, TherapistID: in.TherapistID,
		StartTime: in.Start, EndTime: in.End,
		Status: domain.StatusPending, PaymentStatus: domain.PaymentUnpaid,
	}
	f.appointments[a.ID] = a
	return a, nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// ListAppointments filters, orders and pages like the SQL store: the view
// predicate runs before limit and offset.
func (f *fakeStore) ListAppointments(_ context.Context, flt store.AppointmentFilter) ([]domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = flt
	var out []domain.Appointment
	for _, a := range f.appointments {
		if flt.ClientID != nil && a.ClientID != *flt.ClientID {
			continue
		}
		if flt.TherapistID != nil && a.TherapistID != *flt.TherapistID {
			continue
		}
		if flt.Status != nil && a.Status != *flt.Status {
			continue
		}
		switch flt.View {
		case store.ViewUpcoming:
			if !a.Upcoming(flt.Now) {
				continue
			}
		case store.ViewPast:
			if a.Upcoming(flt.Now) {
				continue
			}
		}
		out = append(out, *a)
	}

	desc := flt.View == store.ViewPast
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime) != desc
		}
		return (out[i].ID.String() < out[j].ID.String()) != desc
	})

	pg := flt.Page.Normalized()
	from := min((pg.Page-1)*pg.PerPage, len(out))
	to := min(from+pg.PerPage, len(out))
	return out[from:to], nil
}

func (f *fakeStore) TransitionAppointment(_ context.Context, id uuid.UUID, from, to domain.AppointmentStatus) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if ok && f.beforeTransition != nil {
		f.beforeTransition(a)
	}
	if !ok || a.Status != from {
		return nil, store.ErrNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (f *fakeStore) MarkPaid(_ context.Context, id uuid.UUID) error {
	a, ok := f.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.PaymentStatus = domain.PaymentPaid
	return nil
}

type published struct {
	subject string
	payload any
}

type fakeBus struct {
	mu   sync.Mutex
	sent []published
}

func (b *fakeBus) Publish(_ context.Context, subject string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, published{subject, payload})
	return nil
}

type fixture struct {
	svc       *appointmentService
	store     *fakeStore
	bus       *fakeBus
	client    uuid.UUID
	therapist uuid.UUID
	london    *time.Location
}

// now is Sunday 2 June 2030 12:00 UTC; Monday 3 June is a working day.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newFakeStore()
	th := &domain.Profile{ID: uuid.New(), Role: identity.RoleTherapist, Timezone: "Europe/London"}
	cl := &domain.Profile{ID: uuid.New(), Role: identity.RoleClient, Timezone: "Europe/London"}
	st.profiles[th.ID] = th
	st.profiles[cl.ID] = cl
	st.assignments[cl.ID] = th.ID

	bus := &fakeBus{}
	svc := New(st, bus, Config{DurationsMinutes: []int{30, 60, 90}, EnforceAvailability: true}).(*appointmentService)
	svc.now = func() time.Time { return time.Date(2030, 6, 2, 12, 0, 0, 0, time.UTC) }

	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return &fixture{svc: svc, store: st, bus: bus, client: cl.ID, therapist: th.ID, london: london}
}

func TestBook(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	appt, err := fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-03", Time: "10:00", DurationMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, appt.Status)
	assert.Equal(t, domain.PaymentUnpaid, appt.PaymentStatus)
	assert.Equal(t, fx.therapist, appt.TherapistID)
	assert.WithinDuration(t, time.Date(2030, 6, 3, 10, 0, 0, 0, fx.london), appt.StartTime, 0)
	assert.Equal(t, time.Hour, appt.EndTime.Sub(appt.StartTime))

	require.Len(t, fx.bus.sent, 1)
	assert.Equal(t, events.AppointmentCreated(fx.therapist), fx.bus.sent[0].subject)
	ev, ok := fx.bus.sent[0].payload.(events.AppointmentEvent)
	require.True(t, ok)
	assert.Equal(t, appt.ID, ev.AppointmentID)
}

func TestBookRejections(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-03", Time: "10:00", DurationMinutes: 60})
	require.NoError(t, err)

	unassigned := uuid.New()
	fx.store.profiles[unassigned] = &domain.Profile{ID: unassigned, Role: identity.RoleClient}

	tests := []struct {
		name   string
		client uuid.UUID
		req    BookRequest
		want   error
	}{
		{"no therapist", unassigned, BookRequest{Date: "2030-06-03", Time: "12:00", DurationMinutes: 60}, ErrNoTherapist},
		{"bad duration", fx.client, BookRequest{Date: "2030-06-03", Time: "12:00", DurationMinutes: 45}, ErrInvalidDuration},
		{"bad date", fx.client, BookRequest{Date: "3 June", Time: "12:00", DurationMinutes: 60}, ErrInvalidDateTime},
		{"in the past", fx.client, BookRequest{Date: "2030-05-31", Time: "10:00", DurationMinutes: 60}, ErrInPast},
		{"weekend", fx.client, BookRequest{Date: "2030-06-08", Time: "10:00", DurationMinutes: 60}, ErrOutsideAvailability},
		{"runs past range end", fx.client, BookRequest{Date: "2030-06-03", Time: "16:30", DurationMinutes: 60}, ErrOutsideAvailability},
		{"overlaps existing", fx.client, BookRequest{Date: "2030-06-03", Time: "10:30", DurationMinutes: 30}, ErrConflict},
		{"wraps existing", fx.client, BookRequest{Date: "2030-06-03", Time: "09:30", DurationMinutes: 90}, ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Book(ctx, tt.client, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// back to back with the existing session is fine
	_, err = fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-03", Time: "11:00", DurationMinutes: 30})
	assert.NoError(t, err)
}

func TestBookWithoutAvailabilityEnforcement(t *testing.T) {
	fx := newFixture(t)
	fx.svc.cfg.EnforceAvailability = false

	_, err := fx.svc.Book(context.Background(), fx.client, BookRequest{Date: "2030-06-08", Time: "10:00", DurationMinutes: 30})
	assert.NoError(t, err)
}

func TestConcurrentOverlappingBookingsOneWins(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	second := uuid.New()
	fx.store.profiles[second] = &domain.Profile{ID: second, Role: identity.RoleClient}
	fx.store.assignments[second] = fx.therapist

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, c := range []uuid.UUID{fx.client, second} {
		wg.Add(1)
		go func(i int, c uuid.UUID) {
			defer wg.Done()
			_, errs[i] = fx.svc.Book(ctx, c, BookRequest{Date: "2030-06-03", Time: "14:00", DurationMinutes: 60})
		}(i, c)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestTransitions(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	book := func(tm string) *domain.Appointment {
		a, err := fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-04", Time: tm, DurationMinutes: 30})
		require.NoError(t, err)
		return a
	}

	t.Run("therapist confirms then completes", func(t *testing.T) {
		a := book("09:00")
		got, err := fx.svc.Transition(ctx, fx.therapist, a.ID, "confirmed")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, got.Status)

		got, err = fx.svc.Transition(ctx, fx.therapist, a.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, got.Status)

		_, err = fx.svc.Transition(ctx, fx.therapist, a.ID, "cancelled")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("client may only cancel", func(t *testing.T) {
		a := book("10:00")
		_, err := fx.svc.Transition(ctx, fx.client, a.ID, "confirmed")
		assert.ErrorIs(t, err, ErrForbiddenTransition)

		got, err := fx.svc.Transition(ctx, fx.client, a.ID, "cancelled")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status)

		_, err = fx.svc.Transition(ctx, fx.therapist, a.ID, "confirmed")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		a := book("11:00")
		_, err := fx.svc.Transition(ctx, fx.therapist, a.ID, "completed")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		a := book("12:00")
		_, err := fx.svc.Transition(ctx, uuid.New(), a.ID, "cancelled")
		assert.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("unknown status and appointment", func(t *testing.T) {
		a := book("13:00")
		_, err := fx.svc.Transition(ctx, fx.therapist, a.ID, "archived")
		assert.ErrorIs(t, err, ErrInvalidStatus)

		_, err = fx.svc.Transition(ctx, fx.therapist, uuid.New(), "confirmed")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelled slot can be rebooked", func(t *testing.T) {
		_, err := fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-04", Time: "10:00", DurationMinutes: 30})
		assert.NoError(t, err)
	})

	var statusEvents int
	for _, p := range fx.bus.sent {
		if events.Matches(events.PatternAppointmentConfirmed, p.subject) ||
			events.Matches(events.PatternAppointmentCompleted, p.subject) ||
			events.Matches(events.PatternAppointmentCancelled, p.subject) {
			statusEvents++
		}
	}
	assert.Equal(t, 3, statusEvents)
}

func TestLostTransitionRace(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	a, err := fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-05", Time: "09:00", DurationMinutes: 30})
	require.NoError(t, err)

	// the client cancels between the therapist's read and write
	fx.store.beforeTransition = func(a *domain.Appointment) { a.Status = domain.StatusCancelled }

	_, err = fx.svc.Transition(ctx, fx.therapist, a.ID, "confirmed")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, domain.StatusCancelled, fx.store.appointments[a.ID].Status)
}

func TestListAndOverview(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a1, err := fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-03", Time: "09:00", DurationMinutes: 30})
	require.NoError(t, err)
	a2, err := fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-03", Time: "10:00", DurationMinutes: 30})
	require.NoError(t, err)
	_, err = fx.svc.Transition(ctx, fx.client, a2.ID, "cancelled")
	require.NoError(t, err)

	client := identity.New(fx.client, uuid.New(), identity.RoleClient)
	therapist := identity.New(fx.therapist, uuid.New(), identity.RoleTherapist)

	up, err := fx.svc.List(ctx, client, ListRequest{View: ViewUpcoming})
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, a1.ID, up[0].ID)
	require.NotNil(t, fx.store.lastFilter.ClientID)

	past, err := fx.svc.List(ctx, therapist, ListRequest{View: ViewPast})
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, a2.ID, past[0].ID)
	require.NotNil(t, fx.store.lastFilter.TherapistID)

	pending := "pending"
	list, err := fx.svc.List(ctx, therapist, ListRequest{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = fx.svc.List(ctx, client, ListRequest{View: "later"})
	assert.ErrorIs(t, err, ErrInvalidView)

	_, err = fx.svc.List(ctx, identity.New(fx.client, uuid.New(), identity.Role{}), ListRequest{})
	assert.ErrorIs(t, err, ErrRoleRequired)

	ov, err := fx.svc.Overview(ctx, client)
	require.NoError(t, err)
	assert.Len(t, ov.Upcoming, 1)
	assert.Len(t, ov.Past, 1)
}

func TestUpcomingSurvivesLongHistory(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	now := fx.svc.now()

	for i := 1; i <= 120; i++ {
		start := now.Add(-time.Duration(i) * 24 * time.Hour)
		id := uuid.New()
		fx.store.appointments[id] = &domain.Appointment{
			ID: id, ClientID: fx.client, TherapistID: fx.therapist,
			StartTime: start, EndTime: start.Add(time.Hour),
			Status: domain.StatusCompleted, PaymentStatus: domain.PaymentPaid,
		}
	}
	next, err := fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-04", Time: "10:00", DurationMinutes: 60})
	require.NoError(t, err)

	client := identity.New(fx.client, uuid.New(), identity.RoleClient)
	therapist := identity.New(fx.therapist, uuid.New(), identity.RoleTherapist)

	pending := "pending"
	up, err := fx.svc.List(ctx, therapist, ListRequest{View: ViewUpcoming, Status: &pending})
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, next.ID, up[0].ID)

	ov, err := fx.svc.Overview(ctx, client)
	require.NoError(t, err)
	require.Len(t, ov.Upcoming, 1)
	assert.Equal(t, next.ID, ov.Upcoming[0].ID)
	require.Len(t, ov.Past, overviewLimit)
	assert.True(t, ov.Past[0].StartTime.After(ov.Past[1].StartTime), "past is most recent first")
	assert.Equal(t, now.Add(-24*time.Hour), ov.Past[0].StartTime)

	past, err := fx.svc.List(ctx, client, ListRequest{View: ViewPast, Page: 7, PerPage: 20})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestGetAndMarkPaid(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	a, err := fx.svc.Book(ctx, fx.client, BookRequest{Date: "2030-06-03", Time: "09:00", DurationMinutes: 30})
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, uuid.New(), a.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	require.NoError(t, fx.svc.MarkPaid(ctx, a.ID))
	require.NoError(t, fx.svc.MarkPaid(ctx, a.ID))
	got, err := fx.svc.Get(ctx, fx.therapist, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)

	assert.ErrorIs(t, fx.svc.MarkPaid(ctx, uuid.New()), ErrNotFound)
}
