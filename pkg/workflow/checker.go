// Package workflow checks a workflow for configuration problems before it is
// saved or run.
package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
)

// ErrInvalidWorkflow wraps every problem reported by Result.Err.
var ErrInvalidWorkflow = errors.New("workflow validation failed")

// Problem is one finding, attached to a node when NodeID is set.
type Problem struct {
	NodeID  string `json:"nodeId,omitempty"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.NodeID == "" {
		return p.Message
	}

	return p.NodeID + ": " + p.Message
}

// Result lists the problems found while walking the graph from the start node.
type Result struct {
	Problems []Problem `json:"problems"`
	// Unreachable lists nodes the walk never visited. They are not problems.
	Unreachable []string `json:"unreachable,omitempty"`
}

func (r *Result) Valid() bool {
	return len(r.Problems) == 0
}

// Err returns nil for a valid result.
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}

	messages := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		messages[i] = p.String()
	}

	return fmt.Errorf("%w:\n%s", ErrInvalidWorkflow, strings.Join(messages, "\n"))
}

func (r *Result) add(node *models.Node, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	if node == nil {
		r.Problems = append(r.Problems, Problem{Message: message})

		return
	}

	r.Problems = append(r.Problems, Problem{
		NodeID:  node.ID,
		Message: fmt.Sprintf("%s node %q %s", node.Type, node.Name, message),
	})
}

type Checker struct {
	logger *slog.Logger
}

func NewChecker(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Checker{logger: logger.With("module", "checker")}
}

// Check walks the graph from startNodeID, or from the workflow's start node
// when it is empty. Each node is checked once.
func (c *Checker) Check(w *models.Workflow, startNodeID string) *Result {
	result := &Result{Problems: make([]Problem, 0)}

	if w == nil {
		result.add(nil, "workflow is missing")

		return result
	}

	if len(w.Nodes) == 0 {
		result.add(nil, "workflow has no nodes")

		return result
	}

	if startNodeID == "" {
		startNodeID = w.StartNodeID
	}

	start := w.Node(startNodeID)
	if start == nil {
		result.add(nil, "start node not found: %q", startNodeID)

		return result
	}

	visited := make(map[string]bool, len(w.Nodes))
	c.visit(w, start, visited, result)

	for _, node := range w.Nodes {
		if !visited[node.ID] {
			result.Unreachable = append(result.Unreachable, node.ID)
		}
	}

	c.logger.Debug("workflow checked",
		"workflow_id", w.ID,
		"problems", len(result.Problems),
		"unreachable", len(result.Unreachable),
	)

	return result
}

func (c *Checker) visit(w *models.Workflow, node *models.Node, visited map[string]bool, result *Result) {
	if visited[node.ID] {
		return
	}

	visited[node.ID] = true

	switch node.Type {
	case models.NodeTypeFunction:
		checkFunction(w, node, result)
	case models.NodeTypeCondition:
		checkCondition(node, result)
	case models.NodeTypeStart, models.NodeTypeEnd:
	}

	if node.Type == models.NodeTypeEnd {
		return
	}

	edges := node.Edges()
	if len(edges) == 0 {
		result.add(node, "has no next nodes but is not an END node")

		return
	}

	for _, edge := range edges {
		next := w.Node(edge.Target)
		if next == nil {
			result.add(node, "references missing next node %q (branch %s)", edge.Target, edge.Branch)

			continue
		}

		c.visit(w, next, visited, result)
	}
}

func checkFunction(w *models.Workflow, node *models.Node, result *Result) {
	if node.ToolName == "" {
		result.add(node, "has no tool")

		return
	}

	tool, ok := w.Tools[node.ToolName]
	if !ok {
		result.add(node, "references unknown tool %q", node.ToolName)

		return
	}

	for _, name := range slices.Sorted(maps.Keys(tool.Inputs)) {
		param := tool.Inputs[name]
		if !param.Required {
			continue
		}

		variable, ok := node.InputMap[name]
		if !ok {
			result.add(node, "is missing required parameter %q", name)

			continue
		}

		switch {
		case variable.DefaultValue != nil:
			if !compatible(param.Type, variable.Type) {
				result.add(node, "parameter %q has incompatible type: expected %s, found %s", name, param.Type, variable.Type)
			}
		case variable.Parent != "" && variable.Parent != models.GlobalParent:
			if w.Node(variable.Parent) == nil {
				result.add(node, "parameter %q references missing node %q", name, variable.Parent)
			}
		}
	}
}

func checkCondition(node *models.Node, result *Result) {
	if len(node.Conditions) == 0 {
		result.add(node, "has no conditions")

		return
	}

	for _, branch := range node.Branches() {
		if _, ok := node.NextNodes[branch]; !ok {
			result.add(node, "is missing branch %s", branch)
		}
	}
}

// compatible treats INTEGER as a NUMBER; every other type must match exactly.
func compatible(expected, found models.VariableType) bool {
	if expected == "" || found == "" {
		return false
	}

	if strings.EqualFold(string(expected), string(found)) {
		return true
	}

	return expected == models.VariableTypeNumber && strings.EqualFold(string(found), "INTEGER")
}
