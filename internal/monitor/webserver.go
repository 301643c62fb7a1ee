package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/pitchside/internal/cycledb"
	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/demux"
)

// WebServerConfig wires a WebServer. Recorder is optional.
type WebServerConfig struct {
	Address  string
	Hub      *Hub
	Snapshot func() *demux.Cycle
	Recorder *cycledb.Recorder
}

// WebServer is the monitor's HTTP interface.
type WebServer struct {
	address  string
	hub      *Hub
	snapshot func() *demux.Cycle
	recorder *cycledb.Recorder
	upgrader websocket.Upgrader
	server   *http.Server
}

// NewWebServer creates a web server with the provided configuration.
func NewWebServer(cfg WebServerConfig) *WebServer {
	ws := &WebServer{
		address:  cfg.Address,
		hub:      cfg.Hub,
		snapshot: cfg.Snapshot,
		recorder: cfg.Recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if ws.hub == nil {
		ws.hub = NewHub()
	}
	if ws.snapshot == nil {
		ws.snapshot = ws.hub.Latest
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

// Handler returns the routes.
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/cycle", ws.handleCycle)
	mux.HandleFunc("/api/tracks", ws.handleTracks)
	mux.HandleFunc("/ws", ws.handleWebSocket)
	mux.HandleFunc("/debug/field", ws.handleFieldChart)
	mux.HandleFunc("/debug/track.png", ws.handleTrackPlot)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ws.address)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("[Monitor] serving on %s", ln.Addr())
		if err := ws.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("[Monitor] shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("[Monitor] force close error: %v", err)
		}
	}
	return nil
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Verbosef("[Monitor] write response: %v", err)
	}
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	ws.writeJSON(w, status, map[string]string{"error": msg})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": ws.hub.Subscribers(),
	})
}

func (ws *WebServer) handleCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	c := ws.snapshot()
	if c == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no cycle published yet")
		return
	}
	ws.writeJSON(w, http.StatusOK, c)
}

// handleTracks returns the recorded history of one track.
// Query params:
//
//	track (required)
//	session (optional, defaults to the current session)
func (ws *WebServer) handleTracks(w http.ResponseWriter, r *http.Request) {
	if ws.recorder == nil {
		ws.writeJSONError(w, http.StatusNotFound, "recording disabled")
		return
	}
	session, trackID, ok := ws.trackQuery(w, r)
	if !ok {
		return
	}
	points, err := ws.recorder.Tracks(session, trackID)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if points == nil {
		points = []cycledb.TrackPoint{}
	}
	ws.writeJSON(w, http.StatusOK, points)
}

func (ws *WebServer) trackQuery(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	trackID, err := strconv.Atoi(r.URL.Query().Get("track"))
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, "missing or invalid 'track' parameter")
		return "", 0, false
	}
	session := r.URL.Query().Get("session")
	if session == "" {
		session = ws.recorder.Session()
	}
	if session == "" {
		ws.writeJSONError(w, http.StatusNotFound, "no recording session")
		return "", 0, false
	}
	return session, trackID, true
}

func (ws *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("[Monitor] upgrade failed: %v", err)
		return
	}
	id, ok := ws.hub.Subscribe(conn)
	if !ok {
		return
	}
	// Subscribers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			ws.hub.Disconnect(id)
			return
		}
	}
}
