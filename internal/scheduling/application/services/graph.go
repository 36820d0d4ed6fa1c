package services

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/reflow/internal/scheduling/domain"
)

// DependencyGraph is a directed graph of work orders whose edges point from
// prerequisite to dependent. It answers ordering questions; it never
// mutates the orders.
type DependencyGraph struct {
	orders        map[string]*domain.WorkOrder
	ids           []string            // insertion order
	dependents    map[string][]string // prerequisite -> dependents, edge order
	prerequisites map[string][]string // dependent -> prerequisites, deduplicated
}

// BuildDependencyGraph indexes the orders and records their dependency
// edges. A reference to an unknown order fails with MissingDependencyError
// naming the first offender in input order. Self-dependencies are recorded;
// they surface later as cycles.
func BuildDependencyGraph(orders []*domain.WorkOrder) (*DependencyGraph, error) {
	g := &DependencyGraph{
		orders:        make(map[string]*domain.WorkOrder, len(orders)),
		ids:           make([]string, 0, len(orders)),
		dependents:    make(map[string][]string, len(orders)),
		prerequisites: make(map[string][]string, len(orders)),
	}

	for _, order := range orders {
		if _, ok := g.orders[order.ID()]; ok {
			return nil, &domain.ValidationError{
				Field:   "workOrders",
				Message: fmt.Sprintf("duplicate work order id %s", order.ID()),
			}
		}
		g.orders[order.ID()] = order
		g.ids = append(g.ids, order.ID())
	}

	for _, order := range orders {
		seen := make(map[string]struct{}, len(order.DependsOn()))
		for _, dep := range order.DependsOn() {
			if _, ok := g.orders[dep]; !ok {
				return nil, &domain.MissingDependencyError{
					WorkOrderID:  order.ID(),
					DependencyID: dep,
				}
			}
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			g.dependents[dep] = append(g.dependents[dep], order.ID())
			g.prerequisites[order.ID()] = append(g.prerequisites[order.ID()], dep)
		}
	}

	return g, nil
}

// Size returns the number of orders in the graph.
func (g *DependencyGraph) Size() int {
	return len(g.ids)
}

// TopologicalOrder returns the order ids linearized with Kahn's algorithm.
// The ready pool is drained by the smallest (originalStart, id) key, so
// identical inputs always produce the identical sequence. When the graph
// cannot be drained, the error carries a cycle witness.
func (g *DependencyGraph) TopologicalOrder() ([]string, error) {
	indegree := make(map[string]int, len(g.ids))
	for _, id := range g.ids {
		indegree[id] = len(g.prerequisites[id])
	}

	ready := &readyPool{}
	heap.Init(ready)
	for _, id := range g.ids {
		if indegree[id] == 0 {
			heap.Push(ready, g.orders[id])
		}
	}

	sequence := make([]string, 0, len(g.ids))
	for ready.Len() > 0 {
		next := heap.Pop(ready).(*domain.WorkOrder)
		sequence = append(sequence, next.ID())
		for _, dependent := range g.dependents[next.ID()] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				heap.Push(ready, g.orders[dependent])
			}
		}
	}

	if len(sequence) != len(g.ids) {
		emitted := make(map[string]struct{}, len(sequence))
		for _, id := range sequence {
			emitted[id] = struct{}{}
		}
		remaining := make([]string, 0, len(g.ids)-len(sequence))
		for _, id := range g.ids {
			if _, ok := emitted[id]; !ok {
				remaining = append(remaining, id)
			}
		}
		return nil, &domain.CircularDependencyError{Cycle: g.FindCycle(remaining)}
	}

	return sequence, nil
}

// FindCycle returns a cycle witness among the remaining ids: a path whose
// last id repeats its first. Any valid cycle is acceptable; the search is
// deterministic (sorted start order, declared edge order).
func (g *DependencyGraph) FindCycle(remaining []string) []string {
	return findCycleIn(remaining, g.prerequisites)
}

// Dependents returns the ids directly depending on the given order, sorted.
func (g *DependencyGraph) Dependents(id string) []string {
	return sortedCopy(g.dependents[id])
}

// Prerequisites returns the ids the given order directly depends on, sorted.
func (g *DependencyGraph) Prerequisites(id string) []string {
	return sortedCopy(g.prerequisites[id])
}

// TransitiveDependents returns every order downstream of the given one,
// sorted.
func (g *DependencyGraph) TransitiveDependents(id string) []string {
	return closure(id, g.dependents)
}

// TransitivePrerequisites returns every order upstream of the given one,
// sorted.
func (g *DependencyGraph) TransitivePrerequisites(id string) []string {
	return closure(id, g.prerequisites)
}

// readyPool orders ready work orders by (originalStart, id).
type readyPool []*domain.WorkOrder

func (p readyPool) Len() int { return len(p) }

func (p readyPool) Less(i, j int) bool {
	if !p[i].StartDate().Equal(p[j].StartDate()) {
		return p[i].StartDate().Before(p[j].StartDate())
	}
	return p[i].ID() < p[j].ID()
}

func (p readyPool) Swap(i, j int) { p[i], p[j] = p[j], p[i] }

func (p *readyPool) Push(x any) { *p = append(*p, x.(*domain.WorkOrder)) }

func (p *readyPool) Pop() any {
	old := *p
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*p = old[:n-1]
	return item
}

// findCycleIn runs a three-state depth-first search over the candidate ids
// following the prerequisite direction. On meeting a node already on the
// recursion path it returns the path suffix from that node plus the node
// again, closing the cycle.
func findCycleIn(candidates []string, prerequisites map[string][]string) []string {
	pending := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		pending[id] = struct{}{}
	}

	starts := sortedCopy(candidates)

	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(candidates))
	var path []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = onPath
		path = append(path, id)

		for _, dep := range prerequisites[id] {
			if _, ok := pending[dep]; !ok {
				continue
			}
			switch state[dep] {
			case onPath:
				from := len(path) - 1
				for from > 0 && path[from] != dep {
					from--
				}
				cycle = append(cycle, path[from:]...)
				cycle = append(cycle, dep)
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		state[id] = done
		return false
	}

	for _, id := range starts {
		if state[id] == unvisited && visit(id) {
			return cycle
		}
	}
	return nil
}

// closure is the breadth-first transitive closure over one edge direction.
func closure(start string, edges map[string][]string) []string {
	visited := map[string]struct{}{start: {}}
	queue := []string{start}
	var out []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range edges[current] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			out = append(out, next)
			queue = append(queue, next)
		}
	}

	sort.Strings(out)
	return out
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

// ValidationIssue is one problem found by the non-throwing pre-flight.
type ValidationIssue struct {
	Code         string   `json:"code"`
	WorkOrderID  string   `json:"workOrderId,omitempty"`
	DependencyID string   `json:"dependencyId,omitempty"`
	Cycle        []string `json:"cycle,omitempty"`
	Message      string   `json:"message"`
}

// Validation issue codes.
const (
	IssueMissingDependency  = "missing_dependency"
	IssueSelfDependency     = "self_dependency"
	IssueCircularDependency = "circular_dependency"
)

// ValidateDependencies collects every dependency problem in the order set
// instead of stopping at the first: unknown references, self-dependencies,
// and cycles (one witness per cycle). An empty slice means the set is
// schedulable.
func ValidateDependencies(orders []*domain.WorkOrder) []ValidationIssue {
	known := make(map[string]struct{}, len(orders))
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		known[order.ID()] = struct{}{}
		ids = append(ids, order.ID())
	}

	issues := make([]ValidationIssue, 0)
	prerequisites := make(map[string][]string, len(orders))

	for _, order := range orders {
		seen := make(map[string]struct{}, len(order.DependsOn()))
		for _, dep := range order.DependsOn() {
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}

			if dep == order.ID() {
				issues = append(issues, ValidationIssue{
					Code:         IssueSelfDependency,
					WorkOrderID:  order.ID(),
					DependencyID: dep,
					Message:      fmt.Sprintf("work order %s depends on itself", order.ID()),
				})
				continue
			}
			if _, ok := known[dep]; !ok {
				issues = append(issues, ValidationIssue{
					Code:         IssueMissingDependency,
					WorkOrderID:  order.ID(),
					DependencyID: dep,
					Message:      fmt.Sprintf("work order %s depends on unknown work order %s", order.ID(), dep),
				})
				continue
			}
			prerequisites[order.ID()] = append(prerequisites[order.ID()], dep)
		}
	}

	// Peel cycles one witness at a time: report, drop the witness nodes,
	// rescan until the rest linearizes.
	active := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		active[id] = struct{}{}
	}
	for {
		remaining := unorderable(ids, active, prerequisites)
		if len(remaining) == 0 {
			break
		}
		witness := findCycleIn(remaining, prerequisites)
		if len(witness) == 0 {
			break
		}
		issues = append(issues, ValidationIssue{
			Code:        IssueCircularDependency,
			WorkOrderID: witness[0],
			Cycle:       witness,
			Message:     fmt.Sprintf("circular dependency detected: %s", strings.Join(witness, " -> ")),
		})
		for _, id := range witness {
			delete(active, id)
		}
	}

	return issues
}

// unorderable returns the active ids Kahn's algorithm cannot emit, in
// input order.
func unorderable(ids []string, active map[string]struct{}, prerequisites map[string][]string) []string {
	indegree := make(map[string]int, len(active))
	dependents := make(map[string][]string, len(active))
	for _, id := range ids {
		if _, ok := active[id]; !ok {
			continue
		}
		for _, dep := range prerequisites[id] {
			if _, ok := active[dep]; !ok {
				continue
			}
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var queue []string
	for _, id := range ids {
		if _, ok := active[id]; ok && indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	emitted := make(map[string]struct{}, len(active))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		emitted[current] = struct{}{}
		for _, dependent := range dependents[current] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	var remaining []string
	for _, id := range ids {
		if _, ok := active[id]; !ok {
			continue
		}
		if _, ok := emitted[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	return remaining
}
