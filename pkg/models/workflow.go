// Package models defines the workflow graph edited on the canvas and its wire format.
package models

// Workflow is a directed graph of nodes plus the declarations they share.
type Workflow struct {
	ID              string                    `json:"id,omitempty"`
	Name            string                    `json:"name"                      validate:"required"`
	Description     string                    `json:"description"`
	Nodes           []*Node                   `json:"nodes"                     validate:"dive"`
	StartNodeID     string                    `json:"startNodeId,omitempty"`
	IsActive        bool                      `json:"isActive"`
	Inputs          map[string]FieldDef       `json:"inputs,omitempty"          validate:"dive"`
	Outputs         map[string]VariableDef    `json:"outputs,omitempty"         validate:"dive"`
	GlobalVariables map[string]any            `json:"globalVariables,omitempty"`
	Tools           map[string]ToolDefinition `json:"tools,omitempty"           validate:"dive"`
}

// NewWorkflow returns an empty workflow ready for editing.
func NewWorkflow(name, description string) *Workflow {
	return &Workflow{
		Name:            name,
		Description:     description,
		Nodes:           make([]*Node, 0),
		Inputs:          make(map[string]FieldDef),
		Outputs:         make(map[string]VariableDef),
		GlobalVariables: make(map[string]any),
		Tools:           make(map[string]ToolDefinition),
	}
}

// Node returns the node with the given id, or nil.
func (w *Workflow) Node(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// StartNode returns the node referenced by StartNodeID, or nil.
func (w *Workflow) StartNode() *Node {
	if w.StartNodeID == "" {
		return nil
	}

	return w.Node(w.StartNodeID)
}

// Edges returns every labelled edge in node order.
func (w *Workflow) Edges() []Edge {
	var edges []Edge
	for _, node := range w.Nodes {
		edges = append(edges, node.Edges()...)
	}

	return edges
}

// Predecessors returns the ids of nodes with an edge into id, in node order.
func (w *Workflow) Predecessors(id string) []string {
	var ids []string

	for _, node := range w.Nodes {
		for _, target := range node.NextNodes {
			if target == id {
				ids = append(ids, node.ID)

				break
			}
		}
	}

	return ids
}

// InputVariables returns the workflow inputs as variables owned by GlobalParent.
func (w *Workflow) InputVariables() []VariableDef {
	vars := make([]VariableDef, 0, len(w.Inputs))
	for _, name := range sortedKeys(w.Inputs) {
		vars = append(vars, w.Inputs[name].Variable(name, GlobalParent))
	}

	return vars
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	clone := *w

	if w.Nodes != nil {
		clone.Nodes = make([]*Node, len(w.Nodes))
		for i, node := range w.Nodes {
			clone.Nodes[i] = node.Clone()
		}
	}

	clone.Inputs = cloneFields(w.Inputs)
	clone.GlobalVariables = cloneMap(w.GlobalVariables)

	if w.Outputs != nil {
		clone.Outputs = make(map[string]VariableDef, len(w.Outputs))
		for k, v := range w.Outputs {
			clone.Outputs[k] = v.Clone()
		}
	}

	if w.Tools != nil {
		clone.Tools = make(map[string]ToolDefinition, len(w.Tools))
		for k, v := range w.Tools {
			clone.Tools[k] = v.Clone()
		}
	}

	return &clone
}
