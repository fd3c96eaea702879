package editor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

type panelState struct {
	open   bool
	nodeID string
}

// BranchOption is one outgoing branch of the edited node and its target.
type BranchOption struct {
	Branch models.Branch `json:"branch"`
	Target string        `json:"target,omitempty"`
}

// Panel is the node editor. Node is nil while it is closed.
type Panel struct {
	Open    bool                 `json:"open"`
	Node    *models.Node         `json:"node,omitempty"`
	Context []models.VariableDef `json:"context,omitempty"`
	// ParametersJSON is the node parameters formatted for editing.
	ParametersJSON string         `json:"parametersJson,omitempty"`
	Branches       []BranchOption `json:"branches,omitempty"`
	// Targets lists the nodes a branch may point at.
	Targets []string `json:"targets,omitempty"`
}

// NodeEdit is a change made in the node editor. Nil fields are left alone.
type NodeEdit struct {
	Name           *string                       `json:"name,omitempty"`
	Description    *string                       `json:"description,omitempty"`
	ToolName       *string                       `json:"toolName,omitempty"`
	ParametersJSON *string                       `json:"parametersJson,omitempty"`
	Conditions     []models.ConditionCase        `json:"conditions,omitempty"`
	InputMap       map[string]models.VariableDef `json:"inputMap,omitempty"`
	// Connections points branches at new targets. An empty target disconnects.
	Connections map[models.Branch]string `json:"connections,omitempty"`
}

func (s *Session) openPanel(nodeID string) {
	s.panel = panelState{open: true, nodeID: nodeID}
}

func (s *Session) closePanel() {
	s.panel = panelState{}
}

// Panel describes the node editor as it should be shown.
func (s *Session) Panel() (Panel, error) {
	if err := s.lock(); err != nil {
		return Panel{}, err
	}
	defer s.mu.Unlock()

	if !s.panel.open {
		return Panel{}, nil
	}

	node := s.store.Node(s.panel.nodeID)
	if node == nil {
		s.panel = panelState{}

		return Panel{}, nil
	}

	view := Panel{
		Open:    true,
		Node:    node.Clone(),
		Context: s.store.AvailableContext(node.ID),
	}

	if len(node.Parameters) > 0 {
		data, err := json.MarshalIndent(node.Parameters, "", "  ")
		if err == nil {
			view.ParametersJSON = string(data)
		}
	}

	for _, branch := range node.Branches() {
		view.Branches = append(view.Branches, BranchOption{Branch: branch, Target: node.NextNodes[branch]})
	}

	for _, other := range s.store.Workflow().Nodes {
		if other.ID != node.ID && other.Type != models.NodeTypeStart {
			view.Targets = append(view.Targets, other.ID)
		}
	}

	return view, nil
}

// OpenPanel opens the node editor on id and selects the node.
func (s *Session) OpenPanel(id string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	err := s.store.SelectNode(id)
	if err != nil {
		return err
	}

	s.openPanel(id)
	s.stale = true

	return nil
}

func (s *Session) ClosePanel() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.closePanel()

	return nil
}

// Edit applies edit to the node in the editor immediately. Invalid parameters
// JSON or a rejected connection rejects the whole edit and leaves the editor
// open.
func (s *Session) Edit(edit NodeEdit) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.applyEdit(edit)
}

// SavePanel applies edit and closes the node editor.
func (s *Session) SavePanel(edit NodeEdit) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	err := s.applyEdit(edit)
	if err != nil {
		return err
	}

	s.closePanel()

	return nil
}

func (s *Session) applyEdit(edit NodeEdit) error {
	if !s.panel.open {
		return ErrPanelClosed
	}

	nodeID := s.panel.nodeID

	update := graph.NodeUpdate{
		Name:        edit.Name,
		Description: edit.Description,
		ToolName:    edit.ToolName,
		Conditions:  edit.Conditions,
		InputMap:    edit.InputMap,
	}

	if edit.ParametersJSON != nil {
		params, err := parseParameters(*edit.ParametersJSON)
		if err != nil {
			return err
		}

		update.Parameters = params
	}

	return s.store.EditNode(nodeID, update, edit.Connections)
}

// parseParameters accepts a JSON object. Blank input clears the parameters.
func parseParameters(raw string) (map[string]any, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	var params map[string]any

	err := json.Unmarshal(trimmed, &params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	if params == nil {
		return nil, ErrInvalidParameters
	}

	return params, nil
}
