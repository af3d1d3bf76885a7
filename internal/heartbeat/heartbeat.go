// Package heartbeat lets the CLI tell whether a planner server is running.
package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dohr-michael/dayplanner/internal/storage/slotstore"
)

// DefaultInterval is how often the server rewrites its heartbeat.
const DefaultInterval = 30 * time.Second

// Status represents the liveness state of the server.
type Status string

const (
	StatusAlive Status = "alive"
	StatusStale Status = "stale"
	StatusDead  Status = "dead"
)

// Heartbeat is the data written to the heartbeat file.
type Heartbeat struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr,omitempty"`
	Storage   string    `json:"storage,omitempty"`
	Tasks     int       `json:"tasks"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// Options configures a Writer.
type Options struct {
	Interval time.Duration // 0: DefaultInterval
	Addr     string        // gateway address advertised to clients
	Storage  string        // storage driver name
	Tasks    func() int    // nil: task count is not reported
}

// Writer periodically writes a heartbeat file to disk.
type Writer struct {
	slots *slotstore.Store
	name  string
	opts  Options

	mu      sync.Mutex
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWriter creates a heartbeat writer for path.
func NewWriter(path string, opts Options) *Writer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Writer{
		slots: slotstore.New(filepath.Dir(path)),
		name:  filepath.Base(path),
		opts:  opts,
	}
}

// Start writes a heartbeat immediately and then every interval.
func (w *Writer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return // already running
	}

	w.started = time.Now()
	w.done = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.write()

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.write()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops writing and removes the heartbeat file.
func (w *Writer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel == nil {
		return
	}

	w.cancel()
	<-w.done
	w.cancel = nil

	os.Remove(filepath.Join(w.slots.Dir(), w.name))
}

func (w *Writer) write() {
	hb := Heartbeat{
		PID:       os.Getpid(),
		Addr:      w.opts.Addr,
		Storage:   w.opts.Storage,
		StartedAt: w.started,
		Timestamp: time.Now(),
		Uptime:    time.Since(w.started).Truncate(time.Second).String(),
	}
	if w.opts.Tasks != nil {
		hb.Tasks = w.opts.Tasks()
	}

	data, err := json.MarshalIndent(hb, "", "  ")
	if err != nil {
		return
	}
	if err := w.slots.WriteFileAtomic(w.name, data); err != nil {
		slog.Warn("heartbeat write failed", "error", err)
	}
}

// Check reads a heartbeat file and returns the liveness status.
// maxAge determines how old a heartbeat can be before it's considered stale.
func Check(path string, maxAge time.Duration) (Status, *Heartbeat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusDead, nil, nil
		}
		return StatusDead, nil, fmt.Errorf("read heartbeat: %w", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return StatusDead, nil, fmt.Errorf("unmarshal heartbeat: %w", err)
	}

	if time.Since(hb.Timestamp) > maxAge {
		return StatusStale, &hb, nil
	}
	return StatusAlive, &hb, nil
}
