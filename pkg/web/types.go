package web

import (
	"github.com/dukex/flowcanvas/pkg/canvas"
	"github.com/dukex/flowcanvas/pkg/editor"
	"github.com/dukex/flowcanvas/pkg/geometry"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

// CreateSessionRequest starts an editor session, optionally opening a saved workflow.
type CreateSessionRequest struct {
	Name        string `json:"name"        validate:"omitempty,max=200"`
	Description string `json:"description"`
	WorkflowID  string `json:"workflowId"`
}

type SessionResponse struct {
	ID       string           `json:"id"`
	Workflow *models.Workflow `json:"workflow"`
}

// UpdateWorkflowRequest is a partial update. Absent fields are left alone.
type UpdateWorkflowRequest struct {
	Name        *string                          `json:"name,omitempty"        validate:"omitempty,min=1"`
	Description *string                          `json:"description,omitempty"`
	IsActive    *bool                            `json:"isActive,omitempty"`
	Inputs      map[string]models.FieldDef       `json:"inputs,omitempty"`
	Tools       map[string]models.ToolDefinition `json:"tools,omitempty"`
}

func (r UpdateWorkflowRequest) update() graph.WorkflowUpdate {
	return graph.WorkflowUpdate{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		Inputs:      r.Inputs,
		Tools:       r.Tools,
	}
}

type CreateNodeRequest struct {
	Type models.NodeType `json:"type" validate:"required,oneof=START FUNCTION CONDITION END"`
	X    float64         `json:"x"`
	Y    float64         `json:"y"`
	Name string          `json:"name"`
}

// UpdateNodeRequest edits a node directly, without going through the panel.
type UpdateNodeRequest struct {
	Name        *string                       `json:"name,omitempty"`
	Description *string                       `json:"description,omitempty"`
	Position    *models.Position              `json:"position,omitempty"`
	ToolName    *string                       `json:"toolName,omitempty"`
	Parameters  map[string]any                `json:"parameters,omitempty"`
	Conditions  []models.ConditionCase        `json:"conditions,omitempty"`
	InputMap    map[string]models.VariableDef `json:"inputMap,omitempty"`
}

func (r UpdateNodeRequest) update() graph.NodeUpdate {
	return graph.NodeUpdate{
		Name:        r.Name,
		Description: r.Description,
		Position:    r.Position,
		ToolName:    r.ToolName,
		Parameters:  r.Parameters,
		Conditions:  r.Conditions,
		InputMap:    r.InputMap,
	}
}

type ConnectionRequest struct {
	Source string        `json:"source" validate:"required"`
	Target string        `json:"target" validate:"required"`
	Branch models.Branch `json:"branch"`
}

// ConnectRequest finishes a port drag at a screen position.
type ConnectRequest struct {
	Source string         `json:"source" validate:"required"`
	Branch models.Branch  `json:"branch"`
	Screen geometry.Point `json:"screen"`
}

type WheelRequest struct {
	DeltaY float64        `json:"deltaY"`
	Cursor geometry.Point `json:"cursor"`
}

type KeyResponse struct {
	Handled bool `json:"handled"`
}

type PointerResponse struct {
	Outcome canvas.Outcome `json:"outcome"`
}

type PaletteRequest struct {
	Type models.NodeType `json:"type" validate:"required,oneof=START FUNCTION CONDITION END"`
}

type CanvasSizeRequest struct {
	Width  int `json:"width"  validate:"required,min=1,max=16384"`
	Height int `json:"height" validate:"required,min=1,max=16384"`
}

type ExecuteRequest struct {
	Inputs map[string]any `json:"inputs"`
}

type ExecuteResponse struct {
	ExecutionID string `json:"executionId"`
}

type StatusResponse struct {
	ExecutionID string                 `json:"executionId"`
	Status      models.ExecutionStatus `json:"status"`
}

// PanelEditRequest mirrors editor.NodeEdit on the wire.
type PanelEditRequest = editor.NodeEdit
