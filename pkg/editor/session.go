// Package editor ties the graph store, canvas, renderer, history, drafts and
// the workflow service together into one editing session.
package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dukex/flowcanvas/pkg/canvas"
	"github.com/dukex/flowcanvas/pkg/debug"
	"github.com/dukex/flowcanvas/pkg/drafts"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/history"
	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/render"
	"github.com/dukex/flowcanvas/pkg/workflow"
	"github.com/google/uuid"
)

// Service is the remote workflow service.
type Service interface {
	Get(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, w *models.Workflow) (*models.Workflow, error)
	Delete(ctx context.Context, id string) error
	Execute(ctx context.Context, id string, inputs map[string]any) (string, error)
	Status(ctx context.Context, id, executionID string) (models.ExecutionStatus, error)
	debug.Streamer
}

type Options struct {
	Service Service
	// Drafts is optional.
	Drafts  drafts.Store
	Logger  *slog.Logger
	Graph   graph.Options
	History history.Options
	Width   int
	Height  int
}

// Session is safe for concurrent use. One mutex serialises every operation;
// calls to the service run outside it.
type Session struct {
	id      string
	service Service
	drafts  drafts.Store
	base    *slog.Logger
	logger  *slog.Logger
	checker *workflow.Checker
	history *history.Manager
	debug   *debug.Session

	mu         sync.Mutex
	closed     bool
	store      *graph.Store
	viewport   *canvas.Viewport
	controller *canvas.Controller
	panel      panelState
	draftKey   string
	generation int
	width      int
	height     int

	scene        *render.Scene
	sceneRunning string
	stale        bool
}

func NewSession(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	base := logger
	logger = logger.With("session_id", id)

	s := &Session{
		id:       id,
		service:  opts.Service,
		drafts:   opts.Drafts,
		base:     base,
		logger:   logger.With("module", "editor"),
		checker:  workflow.NewChecker(logger),
		viewport: canvas.NewViewport(),
		width:    opts.Width,
		height:   opts.Height,
		stale:    true,
	}

	graphOpts := opts.Graph
	if graphOpts.Logger == nil {
		graphOpts.Logger = logger
	}

	s.store = graph.New(graphOpts)
	s.store.Subscribe(s.onChange)

	s.controller = canvas.NewController(s.store, s.viewport, canvas.Options{
		OnOpenEditor:  s.openPanel,
		OnCloseEditor: s.closePanel,
		OnDragCommit:  s.onDragCommit,
		Logger:        logger,
	})

	historyOpts := opts.History
	if historyOpts.Logger == nil {
		historyOpts.Logger = logger
	}

	s.history = history.New(s.currentWorkflow, historyOpts)
	s.debug = debug.NewSession(opts.Service, debug.Options{Logger: logger})

	err := s.history.Init(s.store.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to record initial history: %w", err)
	}

	err = s.history.Start()
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// requestLogger prefers the logger carried by ctx, tagged with the session.
func (s *Session) requestLogger(ctx context.Context) *slog.Logger {
	return log.FromContext(ctx, s.base).With("session_id", s.id, "module", "editor")
}

// currentWorkflow feeds the history poller.
func (s *Session) currentWorkflow() *models.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	return s.store.Snapshot()
}

// onChange runs inside store calls, with mu held.
func (s *Session) onChange(change graph.Change) {
	s.stale = true

	if s.panel.open && s.store.Node(s.panel.nodeID) == nil {
		s.panel = panelState{}
	}

	if change.Kind == graph.ChangeLoaded {
		s.panel = panelState{}
		s.generation++
	}
}

func (s *Session) onDragCommit(nodeID string) {
	_, err := s.history.ForceUpdate(s.store.Snapshot())
	if err != nil {
		s.logger.Warn("failed to snapshot after drag", "node_id", nodeID, "error", err)
	}
}

// lock acquires mu and fails once the session is closed.
func (s *Session) lock() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return ErrClosed
	}

	return nil
}

// Workflow returns a deep copy of the workflow being edited.
func (s *Session) Workflow() (*models.Workflow, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.store.Snapshot(), nil
}

// New discards the current graph and starts an empty workflow.
func (s *Session) New(name, description string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.store.Create(name, description)
	s.draftKey = ""

	return s.history.Init(s.store.Snapshot())
}

// Open loads a workflow from the service. On failure the graph is untouched.
func (s *Session) Open(ctx context.Context, id string) error {
	w, err := s.service.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to open workflow %s: %w", id, err)
	}

	s.requestLogger(ctx).DebugContext(ctx, "workflow fetched", "workflow_id", id)

	return s.load(w, "")
}

func (s *Session) load(w *models.Workflow, draftKey string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.store.Load(w)
	s.draftKey = draftKey

	s.logger.Info("workflow loaded", "workflow_id", w.ID, "nodes", len(w.Nodes))

	return s.history.Init(s.store.Snapshot())
}

// Save stores the workflow in the service and adopts the id it returns.
// On failure nothing changes. A workflow that fails validation is not sent.
// If another workflow was loaded while the request was in flight, the
// returned id is not applied to it.
func (s *Session) Save(ctx context.Context) (*models.Workflow, error) {
	logger := s.requestLogger(ctx)

	if err := s.lock(); err != nil {
		return nil, err
	}

	snapshot := s.store.Snapshot()
	generation := s.generation
	s.mu.Unlock()

	err := snapshot.Validate()
	if err != nil {
		return nil, err
	}

	saved, err := s.service.Save(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if s.generation != generation {
		logger.WarnContext(ctx, "workflow replaced during save", "workflow_id", saved.ID)

		return saved, nil
	}

	if saved.ID != "" {
		s.store.SetID(saved.ID)
	}

	_, err = s.history.ForceUpdate(s.store.Snapshot())
	if err != nil {
		logger.WarnContext(ctx, "failed to snapshot after save", "error", err)
	}

	logger.InfoContext(ctx, "workflow saved", "workflow_id", saved.ID)

	return s.store.Snapshot(), nil
}

// Delete removes the workflow from the service and starts an empty one.
func (s *Session) Delete(ctx context.Context) error {
	id, err := s.workflowID()
	if err != nil {
		return err
	}

	err = s.service.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	s.requestLogger(ctx).InfoContext(ctx, "workflow deleted", "workflow_id", id)

	return s.New("Untitled workflow", "")
}

func (s *Session) workflowID() (string, error) {
	if err := s.lock(); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	id := s.store.Workflow().ID
	if id == "" {
		return "", ErrUnsaved
	}

	return id, nil
}

// Close stops the history timer and any debug run, then disposes the graph.
// It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return
	}

	s.closed = true
	s.mu.Unlock()

	s.history.Stop()
	s.debug.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Dispose()
	s.panel = panelState{}
	s.scene = nil

	s.logger.Debug("editor session closed")
}

// Validate checks the current workflow for configuration problems.
func (s *Session) Validate() (*workflow.Result, error) {
	snapshot, err := s.Workflow()
	if err != nil {
		return nil, err
	}

	return s.checker.Check(snapshot, ""), nil
}

// SetCanvasSize sets the size of rendered scenes.
func (s *Session) SetCanvasSize(width, height int) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.width, s.height = width, height
	s.stale = true

	return nil
}

// Scene returns the current frame, rebuilding it only when something changed.
// The returned scene must not be modified.
func (s *Session) Scene() (*render.Scene, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	running := s.debug.RunningNodeID()

	if s.scene == nil || s.stale || running != s.sceneRunning {
		s.scene = render.Build(s.store.Workflow(), s.viewport, render.Options{
			Width:         s.width,
			Height:        s.height,
			Selection:     s.store.Selection(),
			RunningNodeID: running,
		})
		s.sceneRunning = running
		s.stale = false
	}

	return s.scene, nil
}

// Render writes the current frame as SVG.
func (s *Session) Render(w io.Writer) error {
	scene, err := s.Scene()
	if err != nil {
		return err
	}

	return render.Render(w, scene)
}
