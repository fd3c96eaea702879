package editor

import (
	"github.com/dukex/flowcanvas/pkg/canvas"
	"github.com/dukex/flowcanvas/pkg/geometry"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

// Pointer, wheel and keyboard input is forwarded to the canvas controller
// under the session lock.

func (s *Session) PointerDown(ev canvas.PointerEvent) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.controller.PointerDown(ev)
	s.stale = true

	return nil
}

func (s *Session) PointerMove(ev canvas.PointerEvent) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.controller.PointerMove(ev)
	s.stale = true

	return nil
}

func (s *Session) PointerUp(ev canvas.PointerEvent) (canvas.Outcome, error) {
	if err := s.lock(); err != nil {
		return canvas.OutcomeNone, err
	}
	defer s.mu.Unlock()

	s.stale = true

	return s.controller.PointerUp(ev), nil
}

func (s *Session) Wheel(deltaY float64, cursor geometry.Point) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	s.stale = true

	return s.controller.Wheel(deltaY, cursor), nil
}

func (s *Session) KeyDown(k canvas.Key) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	s.stale = true

	return s.controller.KeyDown(k)
}

func (s *Session) KeyUp(k canvas.Key) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.controller.KeyUp(k)

	return nil
}

func (s *Session) ContextMenu(screen geometry.Point) (canvas.Menu, error) {
	if err := s.lock(); err != nil {
		return canvas.Menu{}, err
	}
	defer s.mu.Unlock()

	return s.controller.ContextMenu(screen), nil
}

func (s *Session) CloseMenu() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.controller.CloseMenu()

	return nil
}

func (s *Session) Menu() (canvas.Menu, error) {
	if err := s.lock(); err != nil {
		return canvas.Menu{}, err
	}
	defer s.mu.Unlock()

	return s.controller.Menu(), nil
}

func (s *Session) SelectPaletteEntry(nodeType models.NodeType) (*models.Node, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	node, err := s.controller.SelectPaletteEntry(nodeType)
	if err != nil {
		return nil, err
	}

	return node.Clone(), nil
}

// Connect finishes a connection drag from sourceID's branch port at screen.
func (s *Session) Connect(sourceID string, branch models.Branch, screen geometry.Point) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.controller.Connect(sourceID, branch, screen)
}

// Viewport returns a copy of the current pan and zoom.
func (s *Session) Viewport() (canvas.Viewport, error) {
	if err := s.lock(); err != nil {
		return canvas.Viewport{}, err
	}
	defer s.mu.Unlock()

	return *s.viewport, nil
}

// Direct graph edits, for callers that do not go through pointer input.

func (s *Session) AddNode(nodeType models.NodeType, pos models.Position, name string) (*models.Node, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	node, err := s.store.AddNode(nodeType, pos, name)
	if err != nil {
		return nil, err
	}

	return node.Clone(), nil
}

func (s *Session) UpdateNode(id string, update graph.NodeUpdate) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.store.UpdateNode(id, update)
}

func (s *Session) UpdateWorkflow(update graph.WorkflowUpdate) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.store.UpdateWorkflow(update)
}

func (s *Session) DeleteNode(id string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.store.DeleteNode(id)
}

func (s *Session) AddConnection(source, target string, branch models.Branch) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.store.AddConnection(source, target, branch)
}

func (s *Session) DeleteConnection(source string, branch models.Branch) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.store.DeleteConnection(source, branch)
}

func (s *Session) SelectNode(id string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.store.SelectNode(id)
}

func (s *Session) SelectConnection(source string, branch models.Branch) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.store.SelectConnection(source, branch)
}

func (s *Session) Selection() (graph.Selection, error) {
	if err := s.lock(); err != nil {
		return graph.Selection{}, err
	}
	defer s.mu.Unlock()

	return s.store.Selection(), nil
}

func (s *Session) Undo() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.store.Undo()
}

func (s *Session) Redo() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.store.Redo()
}
