package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/identity"
	"github.com/Alijeyrad/thera_backend/internal/store"
)

type fakeStore struct {
	profiles map[uuid.UUID]*domain.Profile
	active   map[uuid.UUID]*domain.Assignment
	ended    []domain.Assignment
}

func newFakeStore(ps ...*domain.Profile) *fakeStore {
	f := &fakeStore{profiles: map[uuid.UUID]*domain.Profile{}, active: map[uuid.UUID]*domain.Assignment{}}
	for _, p := range ps {
		f.profiles[p.ID] = p
	}
	return f
}

func (f *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) Assign(_ context.Context, clientID, therapistID uuid.UUID) (*domain.Assignment, error) {
	now := time.Now()
	if prev, ok := f.active[clientID]; ok {
		prev.EndedAt = &now
		f.ended = append(f.ended, *prev)
	}
	a := &domain.Assignment{ID: uuid.New(), ClientID: clientID, TherapistID: therapistID, StartedAt: now}
	f.active[clientID] = a
	return a, nil
}

func (f *fakeStore) CurrentAssignment(_ context.Context, clientID uuid.UUID) (*domain.Assignment, error) {
	a, ok := f.active[clientID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) Unassign(_ context.Context, clientID uuid.UUID) error {
	if _, ok := f.active[clientID]; !ok {
		return store.ErrNotFound
	}
	delete(f.active, clientID)
	return nil
}

func (f *fakeStore) ActiveClients(_ context.Context, therapistID uuid.UUID) ([]domain.Profile, error) {
	var out []domain.Profile
	for cid, a := range f.active {
		if a.TherapistID == therapistID {
			out = append(out, *f.profiles[cid])
		}
	}
	return out, nil
}

func profiles() (client, therapist, other *domain.Profile) {
	client = &domain.Profile{ID: uuid.New(), Role: identity.RoleClient, FullName: "Ada"}
	therapist = &domain.Profile{ID: uuid.New(), Role: identity.RoleTherapist, FullName: "Grace"}
	other = &domain.Profile{ID: uuid.New(), Role: identity.RoleTherapist, FullName: "Hedy"}
	return
}

func TestAssignAndReassign(t *testing.T) {
	c, th, other := profiles()
	st := newFakeStore(c, th, other)
	svc := New(st)
	ctx := context.Background()

	cur, err := svc.Assign(ctx, c.ID, th.ID)
	require.NoError(t, err)
	assert.Equal(t, th.ID, cur.Therapist.ID)

	_, err = svc.Assign(ctx, c.ID, other.ID)
	require.NoError(t, err)
	require.Len(t, st.ended, 1)
	assert.Equal(t, th.ID, st.ended[0].TherapistID)

	id, err := svc.TherapistOf(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, id)

	roster, err := svc.Clients(ctx, th.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)
	assert.NotNil(t, roster)

	roster, err = svc.Clients(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, c.ID, roster[0].ID)
}

func TestAssignRejectsNonTherapist(t *testing.T) {
	c, _, _ := profiles()
	c2 := &domain.Profile{ID: uuid.New(), Role: identity.RoleClient}
	svc := New(newFakeStore(c, c2))

	_, err := svc.Assign(context.Background(), c.ID, c2.ID)
	assert.ErrorIs(t, err, ErrNotTherapist)

	_, err = svc.Assign(context.Background(), c.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotTherapist)
}

func TestAssignRejectsTherapistAsClient(t *testing.T) {
	_, th, other := profiles()
	svc := New(newFakeStore(th, other))

	_, err := svc.Assign(context.Background(), th.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotClient)
}

func TestCurrentAndUnassign(t *testing.T) {
	c, th, _ := profiles()
	svc := New(newFakeStore(c, th))
	ctx := context.Background()

	_, err := svc.Current(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNoTherapist)
	assert.ErrorIs(t, svc.Unassign(ctx, c.ID), ErrNoTherapist)

	_, err = svc.Assign(ctx, c.ID, th.ID)
	require.NoError(t, err)

	cur, err := svc.Current(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", cur.Therapist.FullName)

	require.NoError(t, svc.Unassign(ctx, c.ID))
	_, err = svc.TherapistOf(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNoTherapist)
}
