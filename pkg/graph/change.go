package graph

import "github.com/dukex/flowcanvas/pkg/models"

type ChangeKind string

const (
	ChangeLoaded            ChangeKind = "loaded"
	ChangeWorkflowUpdated   ChangeKind = "workflow_updated"
	ChangeNodeAdded         ChangeKind = "node_added"
	ChangeNodeUpdated       ChangeKind = "node_updated"
	ChangeNodeMoved         ChangeKind = "node_moved"
	ChangeNodeDeleted       ChangeKind = "node_deleted"
	ChangeConnectionAdded   ChangeKind = "connection_added"
	ChangeConnectionDeleted ChangeKind = "connection_deleted"
	ChangeSelection         ChangeKind = "selection"
	ChangeUndo              ChangeKind = "undo"
	ChangeRedo              ChangeKind = "redo"
)

// Change describes a mutation. NodeID and Branch are set when relevant.
type Change struct {
	Kind   ChangeKind
	NodeID string
	Branch models.Branch
}

// Topological reports whether the change can affect what is drawn.
func (c Change) Topological() bool {
	return c.Kind != ChangeSelection
}

// Subscribe registers fn for every change and returns a function removing it.
func (s *Store) Subscribe(fn func(Change)) func() {
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		delete(s.listeners, id)
	}
}

func (s *Store) emit(change Change) {
	for _, fn := range s.listeners {
		fn(change)
	}
}
