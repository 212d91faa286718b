package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/config"
	"github.com/Alijeyrad/thera_backend/pkg/reqctx"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestContextHandlerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&contextHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "req-1"})
	logger.InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-1", rec["request_id"])
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var debugBuf, errBuf bytes.Buffer
	h := fanout([]slog.Handler{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	})
	logger := slog.New(h)

	logger.Info("info line")
	assert.Contains(t, debugBuf.String(), "info line")
	assert.Empty(t, errBuf.String())
}

func TestLokiWriterPushesJSON(t *testing.T) {
	var got lokiPush
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loki/api/v1/push", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Logging.Output.Loki.Endpoint = srv.URL
	cfg.Observability.ServiceName = "thera"
	cfg.Server.Environment = "test"

	logger := slog.New(newLokiHandler(cfg, slog.LevelInfo))
	logger.Info("booked", "quote", `a "quoted" value`)

	require.Len(t, got.Streams, 1)
	assert.Equal(t, "thera", got.Streams[0].Stream["service"])
	require.Len(t, got.Streams[0].Values, 1)
	assert.Contains(t, got.Streams[0].Values[0][1], `booked`)
}

func TestLokiPayloadTimestamp(t *testing.T) {
	lw := &lokiWriter{labels: map[string]string{"service": "x"}, now: func() time.Time { return time.Unix(1, 5) }}
	body, err := lw.payload([]byte("line\n"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"streams":[{"stream":{"service":"x"},"values":[["1000000005","line"]]}]}`, string(body))
}
