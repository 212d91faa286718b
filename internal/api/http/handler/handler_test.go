package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/thera_backend/internal/identity"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	clientID    = uuid.MustParse("0190a000-0000-7000-8000-000000000001")
	therapistID = uuid.MustParse("0190a000-0000-7000-8000-000000000002")
)

func clientIdentity() identity.Identity {
	return identity.New(clientID, uuid.New(), identity.RoleClient)
}

func therapistIdentity() identity.Identity {
	return identity.New(therapistID, uuid.New(), identity.RoleTherapist)
}

// newApp returns an app whose requests carry id, or no identity when id is nil.
func newApp(id *identity.Identity) *fiber.App {
	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		if id != nil {
			c.Locals(middleware.LocalsIdentity, *id)
		}
		return c.Next()
	})
	return app
}

type response struct {
	status int
	header http.Header
	body   map[string]any
}

func do(t *testing.T, app *fiber.App, method, path string, body any) response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode, header: resp.Header}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func (r response) data() map[string]any {
	m, _ := r.body["data"].(map[string]any)
	return m
}
