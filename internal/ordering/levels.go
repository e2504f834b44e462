package ordering

import "github.com/daedaleanai/pgantt/internal/domain"

// Levels returns the number of ancestors of every task, keyed by task id.
//
// The walk up the parent chain is iterative and memoized, so the total work
// is linear in the number of tasks. A parent that is not part of the task
// list ends the walk. Every task on a parent cycle gets level 0 and tasks
// hanging below a cycle are leveled relative to it, independent of the
// order in which tasks are visited.
func Levels(tasks []domain.Task) map[string]int {
	parents := make(map[string]string, len(tasks))
	known := make(map[string]bool, len(tasks))
	for i := range tasks {
		known[tasks[i].ID] = true
	}
	for i := range tasks {
		t := &tasks[i]
		if t.IsRoot() || !known[t.Parent] {
			continue
		}
		parents[t.ID] = t.Parent
	}

	memo := make(map[string]int, len(tasks))
	for i := range tasks {
		levelOf(tasks[i].ID, parents, memo)
	}
	return memo
}

func levelOf(id string, parents map[string]string, memo map[string]int) int {
	if l, ok := memo[id]; ok {
		return l
	}

	var path []string
	onPath := make(map[string]int)
	base := -1
	cur := id
	for {
		if l, ok := memo[cur]; ok {
			base = l
			break
		}
		if k, ok := onPath[cur]; ok {
			for _, c := range path[k:] {
				memo[c] = 0
			}
			path = path[:k]
			base = 0
			break
		}
		onPath[cur] = len(path)
		path = append(path, cur)

		p, ok := parents[cur]
		if !ok {
			break
		}
		cur = p
	}

	for i := len(path) - 1; i >= 0; i-- {
		base++
		memo[path[i]] = base
	}
	return memo[id]
}
