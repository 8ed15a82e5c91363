package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/annel0/voxel-sandbox/internal/auth"
	"github.com/annel0/voxel-sandbox/internal/eventbus"
	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/sim"
	"github.com/annel0/voxel-sandbox/internal/storage"
	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/annel0/voxel-sandbox/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server *RestServer
	loop   *sim.Loop
	world  *world.World
}

func newTestEnv(t *testing.T, tokens *auth.TokenIssuer) *testEnv {
	t.Helper()
	logger := logging.NewWriterLogger("test", io.Discard, logging.ERROR)

	bus := eventbus.NewMemoryBus(256)
	t.Cleanup(bus.Close)
	history := eventbus.NewHistory(64)
	_, err := history.Attach(context.Background(), bus, eventbus.Filter{})
	require.NoError(t, err)

	cfg := world.DefaultConfig()
	cfg.WorldSize = 2
	w := world.New(cfg, world.WithLogger(logger), world.WithObserver(eventbus.NewWorldPublisher(bus, logger)))
	w.GenerateWorld()

	loop := sim.NewLoop(w, 1000, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "world.sav"))
	require.NoError(t, err)

	saves := storage.NewManager(store, storage.WithManagerLogger(logger))
	picker := world.NewGridPicker(w)
	controller := sim.NewController(w,
		sim.WithPicker(picker),
		sim.WithHover(picker),
		sim.WithSaves(saves),
		sim.WithLoop(loop),
	)

	server := NewRestServer(Config{
		Loop:       loop,
		Controller: controller,
		Saves:      saves,
		Tokens:     tokens,
		Events:     history,
		Logger:     logger,
	})
	return &testEnv{server: server, loop: loop, world: w}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)

	var resp GenericResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestRestServer_Health(t *testing.T) {
	env := newTestEnv(t, nil)
	rec, _ := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}

func TestRestServer_WorldStats(t *testing.T) {
	env := newTestEnv(t, nil)
	rec, resp := env.do(t, http.MethodGet, "/api/world", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, 4, data["chunks"])
	assert.EqualValues(t, 64, data["blocks"])
}

func TestRestServer_Chunk(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/chunks/1/0", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, 1, data["cx"])
	assert.Len(t, data["blocks"], 16)

	rec, _ = env.do(t, http.MethodGet, "/api/chunks/9/9", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/chunks/a/0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestServer_PlaceAndRemoveBlock(t *testing.T) {
	env := newTestEnv(t, nil)
	kind := block.BrickKind

	rec, resp := env.do(t, http.MethodPut, "/api/blocks", BlockRequest{X: 1, Y: 50, Z: 1, Kind: &kind}, "")
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)

	var got block.Kind
	var ok bool
	require.NoError(t, env.loop.Do(context.Background(), func(w *world.World) error {
		got, ok = w.BlockAt(vec.Vec3{X: 1, Y: 50, Z: 1})
		return nil
	}))
	require.True(t, ok)
	assert.Equal(t, block.BrickKind, got)

	rec, _ = env.do(t, http.MethodPut, "/api/blocks", BlockRequest{X: 100, Y: 0, Z: 100}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/api/blocks?x=1&y=50&z=1", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, http.MethodDelete, "/api/blocks?x=1&y=50&z=1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = env.do(t, http.MethodDelete, "/api/blocks?x=1&y=50", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestServer_MovePlayerAppliesLOD(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodPut, "/api/player", PlayerRequest{X: 500, Y: 0, Z: 500}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, 4, data["simplified"])
	assert.EqualValues(t, 0, data["detailed"])
}

func TestRestServer_Scroll(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodPost, "/api/selection/scroll", ScrollRequest{Delta: 1}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, block.WoodKind, data["kind"])

	rec, _ = env.do(t, http.MethodPost, "/api/selection/scroll", map[string]int{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestServer_SaveLoad(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.do(t, http.MethodPost, "/api/world/load", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp := env.do(t, http.MethodPost, "/api/world/save", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	saveID := resp.Data.(map[string]interface{})["save_id"]
	assert.NotEmpty(t, saveID)

	rec, _ = env.do(t, http.MethodPost, "/api/world/generate", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	kind := block.StoneKind
	rec, _ = env.do(t, http.MethodPut, "/api/blocks", BlockRequest{X: 0, Y: 70, Z: 0, Kind: &kind}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = env.do(t, http.MethodPost, "/api/world/load", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, saveID, resp.Data.(map[string]interface{})["save_id"])

	rec, resp = env.do(t, http.MethodGet, "/api/world", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 64, resp.Data.(map[string]interface{})["blocks"])
}

func TestRestServer_SavesListForFileStore(t *testing.T) {
	env := newTestEnv(t, nil)
	rec, resp := env.do(t, http.MethodGet, "/api/saves", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Data)
}

func TestRestServer_TokenRequired(t *testing.T) {
	secret, err := auth.GenerateSecureSecret()
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer(secret)
	require.NoError(t, err)
	env := newTestEnv(t, tokens)

	rec, _ := env.do(t, http.MethodGet, "/api/world", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "чтение без токена")

	rec, resp := env.do(t, http.MethodPost, "/api/world/generate", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, resp.TraceID)
	assert.Equal(t, rec.Header().Get("X-Trace-Id"), resp.TraceID)

	rec, _ = env.do(t, http.MethodPost, "/api/world/generate", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	viewer, err := tokens.Issue("viewer", false, time.Minute)
	require.NoError(t, err)
	rec, _ = env.do(t, http.MethodPost, "/api/world/generate", nil, viewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := tokens.Issue("admin", true, time.Minute)
	require.NoError(t, err)
	rec, _ = env.do(t, http.MethodPost, "/api/world/generate", nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRestServer_Input(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodPost, "/api/input", InputRequest{Kind: "menu"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.True(t, env.loop.Paused())

	rec, _ = env.do(t, http.MethodPost, "/api/input", InputRequest{Kind: "menu"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.loop.Paused())

	kind := block.StoneKind
	rec, _ = env.do(t, http.MethodPut, "/api/blocks", BlockRequest{X: 2, Y: 40, Z: 2, Kind: &kind}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = env.do(t, http.MethodPost, "/api/input", InputRequest{
		Kind:      "remove",
		Origin:    [3]float64{2, 45.5, 2},
		Direction: [3]float64{0, -1, 0},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.EqualValues(t, 64, resp.Data.(map[string]interface{})["world"].(map[string]interface{})["blocks"])

	rec, _ = env.do(t, http.MethodPost, "/api/input", InputRequest{Kind: "jump"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestServer_MetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/health", nil, "")
	env.do(t, http.MethodGet, "/api/world", nil, "")

	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "admin_api_http_request_duration_seconds")
	assert.Contains(t, body, `admin_api_http_requests_total{method="GET",path="/api/world",status="200"} 1`)
	assert.NotContains(t, body, `path="/health"`, "служебные маршруты не учитываются")
}

func TestRestServer_ServerInfo(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/server", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	info, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "voxel-sandbox", info["name"])
	assert.Equal(t, false, info["paused"])
	assert.Greater(t, info["goroutines"].(float64), 0.0)
}

func TestRestServer_Events(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodPut, "/api/blocks", BlockRequest{X: 1, Y: 50, Z: 1}, "")
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)

	require.Eventually(t, func() bool {
		rec, resp := env.do(t, http.MethodGet, "/api/events?type="+eventbus.EventBlockPlaced, nil, "")
		if rec.Code != http.StatusOK {
			return false
		}
		events, ok := resp.Data.([]interface{})
		return ok && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	rec, _ = env.do(t, http.MethodGet, "/api/events?limit=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
