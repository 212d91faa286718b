package note

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

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type fakeStore struct {
	assigned map[[2]uuid.UUID]bool
	notes    []store.NoteRecord
}

func (f *fakeStore) IsAssigned(_ context.Context, clientID, therapistID uuid.UUID) (bool, error) {
	return f.assigned[[2]uuid.UUID{clientID, therapistID}], nil
}

func (f *fakeStore) InsertNote(_ context.Context, n store.NoteRecord) (*store.NoteRecord, error) {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	f.notes = append(f.notes, n)
	return &n, nil
}

// ListNotes ignores SharedOnly so the service filter is exercised too.
func (f *fakeStore) ListNotes(_ context.Context, flt store.NoteFilter) ([]store.NoteRecord, error) {
	var out []store.NoteRecord
	for i := len(f.notes) - 1; i >= 0; i-- {
		n := f.notes[i]
		if flt.TherapistID != nil && n.TherapistID != *flt.TherapistID {
			continue
		}
		if flt.ClientID != nil && n.ClientID != *flt.ClientID {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func setup(t *testing.T) (Service, *fakeStore, identity.Identity, identity.Identity) {
	t.Helper()
	th := identity.New(uuid.New(), uuid.New(), identity.RoleTherapist)
	cl := identity.New(uuid.New(), uuid.New(), identity.RoleClient)
	st := &fakeStore{assigned: map[[2]uuid.UUID]bool{{cl.UserID(), th.UserID()}: true}}
	svc, err := New(st, testKey)
	require.NoError(t, err)
	return svc, st, th, cl
}

func TestNewRejectsBadKey(t *testing.T) {
	_, err := New(&fakeStore{}, "abc")
	assert.Error(t, err)
}

func TestCreateEncryptsBody(t *testing.T) {
	svc, st, th, cl := setup(t)

	n, err := svc.Create(context.Background(), th, CreateRequest{
		ClientID: cl.UserID(), Title: "Session 1", Body: "Client reported better sleep.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NoteGeneral, n.Type)
	assert.Equal(t, domain.VisibilityPrivate, n.Visibility)
	assert.Equal(t, "Client reported better sleep.", n.Body)

	require.Len(t, st.notes, 1)
	assert.NotContains(t, st.notes[0].BodyEncrypted, "sleep")
	assert.Empty(t, st.notes[0].Body)
}

func TestCreateRejections(t *testing.T) {
	svc, _, th, cl := setup(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		author identity.Identity
		req    CreateRequest
		want   error
	}{
		{"client author", cl, CreateRequest{ClientID: cl.UserID(), Title: "t", Body: "b"}, ErrTherapistOnly},
		{"missing title", th, CreateRequest{ClientID: cl.UserID(), Body: "b"}, ErrMissingFields},
		{"missing body", th, CreateRequest{ClientID: cl.UserID(), Title: "t", Body: "  "}, ErrMissingFields},
		{"bad type", th, CreateRequest{ClientID: cl.UserID(), Title: "t", Body: "b", Type: "BIRP"}, ErrInvalidType},
		{"bad visibility", th, CreateRequest{ClientID: cl.UserID(), Title: "t", Body: "b", Visibility: "public"}, ErrInvalidVisibility},
		{"unassigned client", th, CreateRequest{ClientID: uuid.New(), Title: "t", Body: "b"}, ErrNotAssigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.author, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrivateNotesNeverReachClient(t *testing.T) {
	svc, _, th, cl := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, th, CreateRequest{ClientID: cl.UserID(), Title: "private", Body: "p", Type: "SOAP"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, th, CreateRequest{ClientID: cl.UserID(), Title: "shared", Body: "s", Type: "DAP", Visibility: "shared"})
	require.NoError(t, err)

	clientView, err := svc.List(ctx, cl, nil)
	require.NoError(t, err)
	require.Len(t, clientView, 1)
	assert.Equal(t, "shared", clientView[0].Title)
	assert.Equal(t, "s", clientView[0].Body)

	therapistView, err := svc.List(ctx, th, nil)
	require.NoError(t, err)
	require.Len(t, therapistView, 2)
	assert.Equal(t, "shared", therapistView[0].Title, "newest first")

	other := uuid.New()
	filtered, err := svc.ListForTherapist(ctx, th.UserID(), &other)
	require.NoError(t, err)
	assert.Empty(t, filtered)

	_, err = svc.List(ctx, identity.New(uuid.New(), uuid.New(), identity.Role{}), nil)
	assert.ErrorIs(t, err, ErrRoleRequired)
}
