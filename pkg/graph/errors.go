package graph

import (
	"errors"
	"fmt"
)

// Rejections. A rejected operation leaves the store untouched.
var (
	ErrNodeNotFound       = errors.New("node not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrSelfLoop           = errors.New("connection would connect a node to itself")
	ErrBranchTaken        = errors.New("branch already connected")
	ErrInvalidBranch      = errors.New("branch not declared by source node")
	ErrCycle              = errors.New("connection would create a cycle")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrNothingToRedo      = errors.New("nothing to redo")
	ErrDisposed           = errors.New("graph store disposed")
)

// OpError wraps a rejection with the operation and the node it concerned.
type OpError struct {
	Op     string
	NodeID string
	Err    error
}

func (e *OpError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func (e *OpError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func opError(op, nodeID string, err error) error {
	return &OpError{Op: op, NodeID: nodeID, Err: err}
}

// IsNotFound reports whether err refers to a missing node or connection.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrConnectionNotFound)
}

// IsRejectedConnection reports whether err is a structural refusal of a new edge.
func IsRejectedConnection(err error) bool {
	return errors.Is(err, ErrSelfLoop) ||
		errors.Is(err, ErrBranchTaken) ||
		errors.Is(err, ErrInvalidBranch) ||
		errors.Is(err, ErrCycle)
}
