package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"SessionScope/internal/auth"
	"SessionScope/internal/config"
	"SessionScope/internal/model"
	"SessionScope/internal/query"
	"SessionScope/internal/user"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// stubGateway records the arguments of the last call and returns
// canned results, always as live data.
type stubGateway struct {
	page       model.SessionPage
	stats      model.Stats
	topIPs     []model.TopIP
	protocols  []model.ProtocolStat
	timeRange  model.TimeRange
	lastFilter model.SessionFilter
	lastLimit  int
	lastOffset int
}

func (g *stubGateway) ListSessions(ctx context.Context, f model.SessionFilter, limit, offset int) (model.SessionPage, query.Source) {
	g.lastFilter, g.lastLimit, g.lastOffset = f, limit, offset
	return g.page, query.SourceLive
}

func (g *stubGateway) Stats(ctx context.Context) (model.Stats, query.Source) {
	return g.stats, query.SourceLive
}

func (g *stubGateway) TopIPs(ctx context.Context, limit int) ([]model.TopIP, query.Source) {
	g.lastLimit = limit
	return g.topIPs, query.SourceLive
}

func (g *stubGateway) ProtocolStats(ctx context.Context) ([]model.ProtocolStat, query.Source) {
	return g.protocols, query.SourceLive
}

func (g *stubGateway) TimeRange(ctx context.Context) (model.TimeRange, query.Source) {
	return g.timeRange, query.SourceLive
}

type testEnv struct {
	handler      http.Handler
	adminToken   string
	analystToken string
	users        *user.Store
}

func newTestEnv(t *testing.T, gw Gateway) *testEnv {
	t.Helper()

	tokens, err := auth.NewJWTManager(config.AuthConfig{
		Secret:        "api-test-secret",
		TokenLifetime: "5m",
	})
	require.NoError(t, err)

	users, err := user.Open(filepath.Join(t.TempDir(), "users.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { users.Close() })

	srv := NewServer(gw, users, tokens, zerolog.Nop())

	adminToken, err := tokens.GenerateToken("admin", "admin")
	require.NoError(t, err)
	analystToken, err := tokens.GenerateToken("analyst", "user")
	require.NoError(t, err)

	return &testEnv{
		handler:      srv.Router([]string{"*"}),
		adminToken:   adminToken,
		analystToken: analystToken,
		users:        users,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
