package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pitchside/internal/cycledb"
	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/demux"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/selfpose"
	"github.com/banshee-data/pitchside/internal/perception/world"
	"github.com/banshee-data/pitchside/internal/rcss"
)

func init() {
	monitoring.SetLogger(nil)
}

func testCycle(n int) *demux.Cycle {
	return &demux.Cycle{
		Time:     n,
		Cycle:    n,
		PlayMode: "play_on",
		Self:     selfpose.State{Pose: geometry.Pose{X: -20, Y: 5}},
		World: world.New(world.Input{
			Time: n,
			Players: []observe.Body{{
				TrackID:  0,
				Team:     observe.TeamOpponent,
				Uniform:  9,
				Position: geometry.Vec{X: float64(n), Y: 1},
				Status:   observe.StatusPosition,
			}},
			Ball: observe.NewGlobalBall(0, 0, 0, 0),
		}),
		Messages: []demux.Message{},
	}
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestWebServer_HealthAndCycle(t *testing.T) {
	hub := NewHub()
	ws := NewWebServer(WebServerConfig{Hub: hub})
	h := ws.Handler()

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/cycle").Code)

	hub.Publish(testCycle(12))
	rec = get(t, h, "/api/cycle")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Time     int    `json:"time"`
		PlayMode string `json:"play_mode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 12, got.Time)
	assert.Equal(t, "play_on", got.PlayMode)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cycle", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebServer_SnapshotSource(t *testing.T) {
	c := testCycle(3)
	ws := NewWebServer(WebServerConfig{Snapshot: func() *demux.Cycle { return c }})
	rec := get(t, ws.Handler(), "/api/cycle")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"time":3`)
}

func TestWebServer_Tracks(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(t, NewWebServer(WebServerConfig{}).Handler(), "/api/tracks?track=0").Code)

	rec, err := cycledb.Open(filepath.Join(t.TempDir(), "cycles.db"))
	require.NoError(t, err)
	defer rec.Close()

	h := NewWebServer(WebServerConfig{Recorder: rec}).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/tracks?track=0").Code, "no session yet")

	_, err = rec.BeginSession("Pitchside", rcss.SideLeft)
	require.NoError(t, err)
	rec.Publish(testCycle(1))
	rec.Publish(testCycle(2))
	rec.Flush()

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/tracks").Code)

	resp := get(t, h, "/api/tracks?track=0")
	require.Equal(t, http.StatusOK, resp.Code)
	var points []cycledb.TrackPoint
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &points))
	require.Len(t, points, 2)
	assert.Equal(t, "opp", points[0].Team)
	assert.InDelta(t, 2, points[1].X, 1e-9)

	resp = get(t, h, "/api/tracks?track=5")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "[]\n", resp.Body.String())

	png := get(t, h, "/debug/track.png?track=0")
	require.Equal(t, http.StatusOK, png.Code)
	assert.Equal(t, "image/png", png.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(png.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/debug/track.png?track=5").Code)
}

func TestWebServer_FieldChart(t *testing.T) {
	hub := NewHub()
	h := NewWebServer(WebServerConfig{Hub: hub}).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/debug/field").Code)

	hub.Publish(testCycle(7))
	rec := get(t, h, "/debug/field")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "World model")
}

func readCycle(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg struct {
		Type  string `json:"type"`
		Cycle struct {
			Time int `json:"time"`
		} `json:"cycle"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "cycle", msg.Type)
	return msg.Cycle.Time
}

func TestHub_WebSocketBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewWebServer(WebServerConfig{Hub: hub}).Handler())
	defer srv.Close()

	hub.Publish(testCycle(1))
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 1, readCycle(t, conn), "the latest cycle is sent on subscribe")

	hub.Publish(testCycle(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	assert.Equal(t, 2, readCycle(t, conn))
	assert.Equal(t, 1, hub.Subscribers())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(testCycle(i))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running broadcaster")
	}
	assert.Equal(t, 99, hub.Latest().Time)
}

func TestWebServer_StartStops(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Address: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- ws.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestWebServer_StartListenError(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Address: "256.0.0.1:bad"})
	assert.Error(t, ws.Start(context.Background()))
}

