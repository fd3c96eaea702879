// Package history keeps a short, timestamped trail of workflow versions
// recorded on a timer, independent of undo and redo.
package history

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/robfig/cron/v3"
)

const (
	DefaultCapacity = 5
	DefaultInterval = 5 * time.Second
)

var (
	ErrIndexOutOfRange = errors.New("history index out of range")
	ErrAlreadyStarted  = errors.New("history polling already started")
)

// Snapshot is a deep copy of the workflow at a point in time.
type Snapshot struct {
	Timestamp time.Time        `json:"timestamp"`
	Workflow  *models.Workflow `json:"workflow"`
}

// Source returns the current workflow. It is called from the polling goroutine.
type Source func() *models.Workflow

type Options struct {
	Capacity int
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Manager records a snapshot whenever the serialised workflow differs from the
// last one recorded. Snapshots are kept newest first.
type Manager struct {
	source Source
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	snapshots []Snapshot
	lastSaved []byte
	cron      *cron.Cron
}

func New(source Source, opts Options) *Manager {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}

	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		source: source,
		opts:   opts,
		logger: logger.With("module", "history"),
	}
}

// Init discards recorded snapshots and records initial as the first one.
func (m *Manager) Init(initial *models.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots = nil
	m.lastSaved = nil

	_, err := m.record(initial)

	return err
}

// Start polls the source every interval until Stop is called.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cron != nil {
		return ErrAlreadyStarted
	}

	m.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	spec := fmt.Sprintf("@every %s", m.opts.Interval)

	_, err := m.cron.AddFunc(spec, m.poll)
	if err != nil {
		m.cron = nil

		return fmt.Errorf("failed to schedule history check: %w", err)
	}

	m.cron.Start()
	m.logger.Debug("history polling started", "interval", m.opts.Interval)

	return nil
}

// Stop cancels polling and waits for a running check to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		m.logger.Debug("history polling stopped")
	}
}

func (m *Manager) poll() {
	_, err := m.Check()
	if err != nil {
		m.logger.Error("history check failed", "error", err)
	}
}

// Check records the source's workflow if it changed since the last snapshot.
func (m *Manager) Check() (bool, error) {
	current := m.source()

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.record(current)
}

// ForceUpdate records w if it differs from the last snapshot.
func (m *Manager) ForceUpdate(w *models.Workflow) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.record(w)
}

func (m *Manager) record(w *models.Workflow) (bool, error) {
	if w == nil {
		return false, nil
	}

	data, err := models.EncodeWorkflow(w)
	if err != nil {
		return false, err
	}

	if m.lastSaved != nil && bytes.Equal(data, m.lastSaved) {
		return false, nil
	}

	snapshot := Snapshot{Timestamp: m.opts.Now(), Workflow: models.ToWire(w)}

	m.snapshots = append([]Snapshot{snapshot}, m.snapshots...)
	if len(m.snapshots) > m.opts.Capacity {
		m.snapshots = m.snapshots[:m.opts.Capacity]
	}

	m.lastSaved = data
	m.logger.Debug("history snapshot recorded", "snapshots", len(m.snapshots))

	return true, nil
}

// Restore returns a deep copy of the snapshot at index (0 is newest) and
// treats it as the last recorded state.
func (m *Manager) Restore(index int) (*models.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.snapshots) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	w := m.snapshots[index].Workflow.Clone()

	data, err := models.EncodeWorkflow(w)
	if err != nil {
		return nil, err
	}

	m.lastSaved = data

	return w, nil
}

// Snapshots returns copies of the recorded snapshots, newest first.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Snapshot, len(m.snapshots))
	for i, s := range m.snapshots {
		out[i] = Snapshot{Timestamp: s.Timestamp, Workflow: s.Workflow.Clone()}
	}

	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.snapshots)
}
