package graph

import "github.com/dukex/flowcanvas/pkg/models"

type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionNode
	SelectionConnection
)

// Selection is either one node or one connection. Selecting one clears the other.
type Selection struct {
	Kind   SelectionKind
	NodeID string
	Edge   models.Edge
}

func (s Selection) IsNode(id string) bool {
	return s.Kind == SelectionNode && s.NodeID == id
}

func (s Selection) IsConnection(source string, branch models.Branch) bool {
	return s.Kind == SelectionConnection && s.Edge.Source == source && s.Edge.Branch == branch
}

func (s *Store) Selection() Selection {
	return s.selection
}

func (s *Store) SelectNode(id string) error {
	if s.workflow.Node(id) == nil {
		return opError("SelectNode", id, ErrNodeNotFound)
	}

	s.selection = Selection{Kind: SelectionNode, NodeID: id}
	s.emit(Change{Kind: ChangeSelection, NodeID: id})

	return nil
}

func (s *Store) SelectConnection(source string, branch models.Branch) error {
	node := s.workflow.Node(source)
	if node == nil {
		return opError("SelectConnection", source, ErrNodeNotFound)
	}

	target, ok := node.NextNodes[branch]
	if !ok {
		return opError("SelectConnection", source, ErrConnectionNotFound)
	}

	s.selection = Selection{
		Kind: SelectionConnection,
		Edge: models.Edge{Source: source, Target: target, Branch: branch},
	}
	s.emit(Change{Kind: ChangeSelection, NodeID: source, Branch: branch})

	return nil
}

func (s *Store) ClearSelection() {
	if s.selection.Kind == SelectionNone {
		return
	}

	s.selection = Selection{}
	s.emit(Change{Kind: ChangeSelection})
}

// reconcileSelection drops a selection that no longer points at the graph.
func (s *Store) reconcileSelection() {
	switch s.selection.Kind {
	case SelectionNode:
		if s.workflow.Node(s.selection.NodeID) == nil {
			s.selection = Selection{}
		}
	case SelectionConnection:
		node := s.workflow.Node(s.selection.Edge.Source)
		if node == nil || node.NextNodes[s.selection.Edge.Branch] != s.selection.Edge.Target {
			s.selection = Selection{}
		}
	case SelectionNone:
	}
}
