package graph

import "github.com/dukex/flowcanvas/pkg/models"

func (s *Store) pushUndo() {
	s.pushSnapshot(s.workflow.Clone())
}

func (s *Store) pushSnapshot(w *models.Workflow) {
	s.past = append(s.past, w)
	if len(s.past) > s.opts.UndoDepth {
		s.past = s.past[len(s.past)-s.opts.UndoDepth:]
	}

	s.future = nil
}

func (s *Store) CanUndo() bool {
	return len(s.past) > 0
}

func (s *Store) CanRedo() bool {
	return len(s.future) > 0
}

func (s *Store) Undo() error {
	if len(s.past) == 0 {
		return ErrNothingToUndo
	}

	previous := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append(s.future, s.workflow)

	s.restore(previous)
	s.emit(Change{Kind: ChangeUndo})

	return nil
}

func (s *Store) Redo() error {
	if len(s.future) == 0 {
		return ErrNothingToRedo
	}

	next := s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.past = append(s.past, s.workflow)

	s.restore(next)
	s.emit(Change{Kind: ChangeRedo})

	return nil
}

func (s *Store) restore(w *models.Workflow) {
	s.workflow = w
	s.counter = nextCounter(w, s.counter)
	s.reconcileSelection()
	s.recomputeAllContexts()
}
