package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/gammazero/toposort"
)

// ErrLinkCycle is returned by ValidateLinks when dependency links loop.
var ErrLinkCycle = errors.New("dependency links contain a cycle")

// Problem is a data issue found in a snapshot. Problems never block
// rendering; they are reported next to the plan.
type Problem struct {
	LinkID  string
	Message string
}

// ValidateLinks checks the dependency links of a snapshot: both ends must
// name a task of the snapshot, and links must not form a cycle. Dangling
// links are returned as problems; a cycle is returned as ErrLinkCycle.
func ValidateLinks(s domain.Snapshot) ([]Problem, error) {
	known := make(map[string]bool, len(s.Tasks))
	for i := range s.Tasks {
		known[s.Tasks[i].ID] = true
	}

	var problems []Problem
	var edges []toposort.Edge
	for _, l := range s.Links {
		var missing []string
		if !known[l.Source] {
			missing = append(missing, "source "+l.Source)
		}
		if !known[l.Target] {
			missing = append(missing, "target "+l.Target)
		}
		if len(missing) > 0 {
			problems = append(problems, Problem{
				LinkID:  l.ID,
				Message: "unknown " + strings.Join(missing, " and "),
			})
			continue
		}
		edges = append(edges, toposort.Edge{l.Source, l.Target})
	}

	sort.Slice(problems, func(i, j int) bool { return problems[i].LinkID < problems[j].LinkID })

	if len(edges) == 0 {
		return problems, nil
	}
	if _, err := toposort.Toposort(edges); err != nil {
		return problems, fmt.Errorf("%w: %v", ErrLinkCycle, err)
	}
	return problems, nil
}
