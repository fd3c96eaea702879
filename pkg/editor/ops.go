package editor

import (
	"context"
	"fmt"

	"github.com/dukex/flowcanvas/pkg/drafts"
	"github.com/dukex/flowcanvas/pkg/history"
	"github.com/dukex/flowcanvas/pkg/models"
)

// History returns the recorded snapshots, newest first.
func (s *Session) History() ([]history.Snapshot, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.history.Snapshots(), nil
}

// RestoreHistory replaces the graph with snapshot index. The replacement can
// be undone.
func (s *Session) RestoreHistory(index int) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	w, err := s.history.Restore(index)
	if err != nil {
		return err
	}

	s.store.Replace(w)

	return nil
}

// SaveDraft stores a local copy under the workflow id, or under a random key
// kept for the session while the workflow is unsaved.
func (s *Session) SaveDraft(ctx context.Context) (*drafts.Draft, error) {
	if s.drafts == nil {
		return nil, ErrNoDraftStore
	}

	if err := s.lock(); err != nil {
		return nil, err
	}

	snapshot := s.store.Snapshot()

	if snapshot.ID != "" || s.draftKey == "" {
		s.draftKey = drafts.KeyFor(snapshot)
	}

	key := s.draftKey
	s.mu.Unlock()

	draft, err := s.drafts.Save(ctx, key, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	return draft, nil
}

// RestoreDraft loads a draft as the workflow being edited.
func (s *Session) RestoreDraft(ctx context.Context, key string) error {
	if s.drafts == nil {
		return ErrNoDraftStore
	}

	draft, err := s.drafts.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to restore draft: %w", err)
	}

	return s.load(draft.Workflow, draft.Key)
}

func (s *Session) ListDrafts(ctx context.Context) ([]drafts.Draft, error) {
	if s.drafts == nil {
		return nil, ErrNoDraftStore
	}

	return s.drafts.List(ctx)
}

// Execute starts a run of the saved workflow and returns its execution id.
func (s *Session) Execute(ctx context.Context, inputs map[string]any) (string, error) {
	id, err := s.workflowID()
	if err != nil {
		return "", err
	}

	executionID, err := s.service.Execute(ctx, id, inputs)
	if err != nil {
		return "", err
	}

	s.requestLogger(ctx).InfoContext(ctx, "execution started", "workflow_id", id, "execution_id", executionID)

	return executionID, nil
}

func (s *Session) ExecutionStatus(ctx context.Context, executionID string) (models.ExecutionStatus, error) {
	id, err := s.workflowID()
	if err != nil {
		return "", err
	}

	return s.service.Status(ctx, id, executionID)
}

// DebugState is the progress of the current or last debug run.
type DebugState struct {
	Running       bool                        `json:"running"`
	WorkflowID    string                      `json:"workflowId,omitempty"`
	RunningNodeID string                      `json:"runningNodeId,omitempty"`
	Events        []models.NodeExecutionEvent `json:"events"`
	Error         string                      `json:"error,omitempty"`
}

// StartDebug begins a debug run of the saved workflow. The run outlives ctx
// and ends with StopDebug, Close or the end of the stream.
func (s *Session) StartDebug(ctx context.Context, inputs map[string]any) error {
	id, err := s.workflowID()
	if err != nil {
		return err
	}

	return s.debug.Start(context.WithoutCancel(ctx), id, inputs)
}

func (s *Session) StopDebug() {
	s.debug.Stop()

	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

func (s *Session) Debug() DebugState {
	state := DebugState{
		Running:       s.debug.Running(),
		WorkflowID:    s.debug.WorkflowID(),
		RunningNodeID: s.debug.RunningNodeID(),
		Events:        s.debug.Events(),
	}

	if err := s.debug.Err(); err != nil {
		state.Error = err.Error()
	}

	return state
}

// WaitDebug blocks until the current debug run is over.
func (s *Session) WaitDebug() {
	s.debug.Wait()
}
