package engine

import (
	"github.com/stepflow-io/stepflow/pkg/domain"
)

// Resolve checks the dependency relation of the given steps and returns a
// valid execution order. Referential integrity is checked first: a
// depends_on entry naming an undeclared step yields UnknownDependencyError
// before any cycle detection runs. Cycles yield a CycleError naming a step
// on the cycle.
//
// Steps with no ordering constraint between them keep their declaration
// order (stable topological sort), so execution order is deterministic and
// reproducible across runs.
func Resolve(steps []domain.Step) ([]domain.Step, error) {
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		index[s.ID] = i
	}

	indegree := make([]int, len(steps))
	dependents := make([][]int, len(steps))
	for i, s := range steps {
		for _, dep := range s.DependsOn {
			j, ok := index[dep]
			if !ok {
				return nil, &domain.UnknownDependencyError{StepID: s.ID, Dependency: dep}
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	// Kahn's algorithm, always extracting the earliest-declared ready step.
	done := make([]bool, len(steps))
	ordered := make([]domain.Step, 0, len(steps))
	for len(ordered) < len(steps) {
		next := -1
		for i := range steps {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			return nil, &domain.CycleError{StepID: cycleMember(steps, index, done)}
		}
		done[next] = true
		ordered = append(ordered, steps[next])
		for _, d := range dependents[next] {
			indegree[d]--
		}
	}
	return ordered, nil
}

// cycleMember finds a step that sits on a dependency cycle once the sort has
// stalled. Every unresolved step has at least one unresolved dependency at
// that point, so following unresolved edges from any unresolved step must
// revisit a node; the revisited node is on the cycle. Steps that merely
// depend on a cycle are passed through, never returned.
func cycleMember(steps []domain.Step, index map[string]int, done []bool) string {
	cur := -1
	for i := range steps {
		if !done[i] {
			cur = i
			break
		}
	}

	visited := make(map[int]bool)
	for !visited[cur] {
		visited[cur] = true
		for _, dep := range steps[cur].DependsOn {
			if j := index[dep]; !done[j] {
				cur = j
				break
			}
		}
	}
	return steps[cur].ID
}

// TransitiveDependents returns the set of step IDs reachable from failedID
// via the dependency relation, i.e. every step that directly or indirectly
// depends on it. Used by the skip failure policy to prune exactly the
// downstream subgraph and nothing else.
func TransitiveDependents(steps []domain.Step, failedID string) map[string]bool {
	dependents := make(map[string][]string, len(steps))
	for _, s := range steps {
		for _, dep := range s.DependsOn {
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	reached := make(map[string]bool)
	frontier := []string{failedID}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		for _, next := range dependents[id] {
			if !reached[next] {
				reached[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	return reached
}
