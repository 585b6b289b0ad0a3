package dag

import "slices"

// Cycles returns one representative path per back edge found by a
// depth-first search. Each path starts and ends with the same node ID.
// Traversal visits nodes and children in sorted order, so the result is
// deterministic.
func (d *DAG) Cycles() [][]string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var stack []string
	var cycles [][]string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		children := slices.Sorted(slices.Values(d.outgoing[id]))
		for _, child := range children {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				i := slices.Index(stack, child)
				cycle := append(slices.Clone(stack[i:]), child)
				cycles = append(cycles, cycle)
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, n := range d.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	return cycles
}

// TopologicalOrder returns node IDs so that every dependency comes before
// its dependents (edges point from dependent to dependency). Ties are broken
// by ID. Returns ErrGraphHasCycle if no such order exists.
func (d *DAG) TopologicalOrder() ([]string, error) {
	remaining := make(map[string]int, len(d.nodes))
	var ready []string
	for _, n := range d.Nodes() {
		remaining[n.ID] = len(d.outgoing[n.ID])
		if remaining[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	order := make([]string, 0, len(d.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var unlocked []string
		for _, parent := range d.incoming[id] {
			remaining[parent]--
			if remaining[parent] == 0 {
				unlocked = append(unlocked, parent)
			}
		}
		slices.Sort(unlocked)
		ready = mergeSorted(ready, unlocked)
	}

	if len(order) != len(d.nodes) {
		return order, ErrGraphHasCycle
	}
	return order, nil
}

func mergeSorted(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return out
}

// Dependents returns every node that transitively depends on id, sorted.
func (d *DAG) Dependents(id string) []string {
	seen := map[string]bool{id: true}
	queue := []string{id}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range d.incoming[cur] {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
				queue = append(queue, p)
			}
		}
	}
	slices.Sort(out)
	return out
}
