package geometry

// Adjacency maps a node id to the ids it points at.
type Adjacency map[string][]string

// WouldCreateCycle reports whether adding the edge source->target to graph
// closes a directed cycle.
func WouldCreateCycle(graph Adjacency, source, target string) bool {
	if source == target {
		return true
	}

	visited := make(map[string]bool)
	stack := []string{target}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == source {
			return true
		}

		if visited[current] {
			continue
		}

		visited[current] = true

		stack = append(stack, graph[current]...)
	}

	return false
}
