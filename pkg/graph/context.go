package graph

import (
	"slices"

	"github.com/dukex/flowcanvas/pkg/models"
)

// UpdateContextChain recomputes the context of id and everything reachable from it.
func (s *Store) UpdateContextChain(id string) {
	s.propagate(id)
}

// AvailableContext returns the workflow inputs followed by the node's upstream variables.
func (s *Store) AvailableContext(id string) []models.VariableDef {
	vars := s.workflow.InputVariables()

	node := s.workflow.Node(id)
	if node == nil {
		return vars
	}

	for _, v := range node.Context {
		vars = append(vars, v.Clone())
	}

	return vars
}

func (s *Store) recomputeAllContexts() {
	ids := make([]string, 0, len(s.workflow.Nodes))
	for _, node := range s.workflow.Nodes {
		ids = append(ids, node.ID)
	}

	s.propagate(ids...)
}

// propagate clears the context of every node reachable from roots and
// recomputes it as a forward data-flow fixed point: a node sees the context
// of each predecessor plus what that predecessor produces, never its own outputs.
func (s *Store) propagate(roots ...string) {
	affected := s.reachable(roots)
	if len(affected) == 0 {
		return
	}

	order := make([]*models.Node, 0, len(affected))
	for _, node := range s.workflow.Nodes {
		if affected[node.ID] {
			node.Context = nil
			order = append(order, node)
		}
	}

	predecessors := make(map[string][]*models.Node, len(order))
	for _, node := range s.workflow.Nodes {
		for _, edge := range node.Edges() {
			if affected[edge.Target] && !slices.Contains(predecessors[edge.Target], node) {
				predecessors[edge.Target] = append(predecessors[edge.Target], node)
			}
		}
	}

	for changed := true; changed; {
		changed = false

		for _, node := range order {
			next := s.incomingContext(node, predecessors[node.ID])
			if len(next) != len(node.Context) {
				node.Context = next
				changed = true
			}
		}
	}
}

func (s *Store) incomingContext(node *models.Node, preds []*models.Node) []models.VariableDef {
	var vars []models.VariableDef

	seen := make(map[string]bool)

	add := func(v models.VariableDef) {
		if v.Parent == node.ID || seen[v.Key()] {
			return
		}

		seen[v.Key()] = true
		vars = append(vars, v.Clone())
	}

	for _, pred := range preds {
		for _, v := range pred.Context {
			add(v)
		}

		for _, v := range pred.Outputs(s.workflow.Tools) {
			add(v)
		}
	}

	return vars
}

// reachable returns every existing node reachable from roots, roots included.
func (s *Store) reachable(roots []string) map[string]bool {
	visited := make(map[string]bool)
	stack := slices.Clone(roots)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[id] {
			continue
		}

		node := s.workflow.Node(id)
		if node == nil {
			continue
		}

		visited[id] = true

		for _, target := range node.NextNodes {
			stack = append(stack, target)
		}
	}

	return visited
}
