package cycledb

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/demux"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// DefaultQueueSize is the number of cycles buffered for the writer.
const DefaultQueueSize = 256

// ErrNoSession is returned when cycles are queried or written before
// BeginSession.
var ErrNoSession = errors.New("cycledb: no session")

// TrackPoint is one recorded position of a tracked player.
type TrackPoint struct {
	Time       int     `json:"time"`
	TrackID    int     `json:"track_id"`
	Team       string  `json:"team"`
	Uniform    int     `json:"uniform"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	VX         float64 `json:"vx"`
	VY         float64 `json:"vy"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
}

type job struct {
	session string
	cycle   *demux.Cycle
	ack     chan struct{}
}

// Recorder writes published cycles on its own goroutine. It implements
// demux.Sink and never blocks the publisher: when the queue is full the
// cycle is dropped and counted.
type Recorder struct {
	db      *DB
	queue   chan job
	done    chan struct{}
	dropped atomic.Int64

	mu      sync.RWMutex
	closed  bool
	session string
}

var _ demux.Sink = (*Recorder)(nil)

// Open opens the database at path and starts a recorder on it.
func Open(path string) (*Recorder, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return NewRecorder(db, DefaultQueueSize), nil
}

// NewRecorder starts a recorder writing to db.
func NewRecorder(db *DB, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r := &Recorder{
		db:    db,
		queue: make(chan job, queueSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// DB returns the underlying database.
func (r *Recorder) DB() *DB { return r.db }

// BeginSession starts a new recording session and returns its id.
func (r *Recorder) BeginSession(team string, side rcss.Side) (string, error) {
	id := uuid.NewString()
	if _, err := r.db.Exec(`INSERT INTO sessions (session_id, team, side) VALUES (?, ?, ?)`, id, team, string(side)); err != nil {
		return "", fmt.Errorf("cycledb: begin session: %w", err)
	}
	r.mu.Lock()
	r.session = id
	r.mu.Unlock()
	monitoring.Logf("[Recorder] session %s for %s (%s)", id, team, side)
	return id, nil
}

// Session returns the current session id, or "" before BeginSession.
func (r *Recorder) Session() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session
}

// Publish queues c for writing.
func (r *Recorder) Publish(c *demux.Cycle) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed || r.session == "" {
		return
	}
	select {
	case r.queue <- job{session: r.session, cycle: c}:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			monitoring.Logf("[Recorder] queue full, %d cycles dropped", n)
		}
	}
}

// Dropped returns the number of cycles dropped because the queue was full.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Flush waits until every cycle queued so far has been written.
func (r *Recorder) Flush() {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	ack := make(chan struct{})
	r.queue <- job{ack: ack}
	r.mu.RUnlock()
	<-ack
}

// Close writes the queued cycles and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
	return r.db.Close()
}

func (r *Recorder) run() {
	defer close(r.done)
	for j := range r.queue {
		if j.ack != nil {
			close(j.ack)
			continue
		}
		if err := r.write(j.session, j.cycle); err != nil {
			monitoring.Logf("[Recorder] cycle %d: %v", j.cycle.Time, err)
		}
	}
}

func (r *Recorder) write(session string, c *demux.Cycle) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	pose := c.Self.Pose
	ball := c.World.Ball()
	var ballX, ballY any
	if ball.Status != observe.StatusLost {
		ballX, ballY = ball.Position.X, ball.Position.Y
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO cycles
		(session_id, cycle, server_time, play_mode, goals, goals_against,
		 self_x, self_y, self_heading, ball_x, ball_y, ball_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session, c.Cycle, c.Time, c.PlayMode, c.Goals, c.GoalsAgainst,
		pose.X, pose.Y, pose.Heading, ballX, ballY, string(ball.Status))
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO tracks
		(session_id, server_time, track_id, team, uniform, x, y, vx, vy, status, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range c.World.Players() {
		if p.TrackID < 0 {
			continue
		}
		if _, err := stmt.Exec(session, c.Time, p.TrackID, string(p.Team), p.Uniform,
			p.Position.X, p.Position.Y, p.Velocity.X, p.Velocity.Y, string(p.Status), p.MatchConfidence); err != nil {
			return fmt.Errorf("insert track %d: %w", p.TrackID, err)
		}
	}
	return tx.Commit()
}

// Tracks returns the recorded history of one track, oldest first.
func (r *Recorder) Tracks(sessionID string, trackID int) ([]TrackPoint, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	rows, err := r.db.Query(`SELECT server_time, track_id, team, uniform, x, y, vx, vy, status, confidence
		FROM tracks WHERE session_id = ? AND track_id = ? ORDER BY server_time`, sessionID, trackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrackPoint
	for rows.Next() {
		var p TrackPoint
		if err := rows.Scan(&p.Time, &p.TrackID, &p.Team, &p.Uniform, &p.X, &p.Y, &p.VX, &p.VY, &p.Status, &p.Confidence); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CycleCount returns the number of cycles recorded in a session.
func (r *Recorder) CycleCount(sessionID string) (int, error) {
	if sessionID == "" {
		return 0, ErrNoSession
	}
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM cycles WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
