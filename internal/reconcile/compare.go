package reconcile

import (
	"reflect"

	"github.com/daedaleanai/pgantt/internal/domain"
)

// Reason names the trigger that made a comparison report a change.
type Reason string

const (
	ReasonTasksRemoved Reason = "tasks_removed"
	ReasonTaskCount    Reason = "task_count"
	ReasonTaskChanged  Reason = "task_changed"
	ReasonLinksRemoved Reason = "links_removed"
	ReasonLinkCount    Reason = "link_count"
	ReasonLinkChanged  Reason = "link_changed"
)

// Diff is the outcome of comparing the current snapshot with a candidate.
type Diff struct {
	ShouldApply    bool
	RemovedTaskIDs []string
	RemovedLinkIDs []string
	Reasons        []Reason
}

// Compare decides whether candidate differs from previous in a way the
// renderer has to see, and which records it has to drop first.
//
// Both snapshots must have been passed through ordering.Order: records are
// compared index by index, which is only meaningful for the same stable
// order.
func Compare(previous, candidate domain.Snapshot) Diff {
	var d Diff

	d.RemovedTaskIDs = RemovedIDs(taskIDs(previous.Tasks), taskIDs(candidate.Tasks))
	switch {
	case len(d.RemovedTaskIDs) > 0:
		d.Reasons = append(d.Reasons, ReasonTasksRemoved)
	case len(previous.Tasks) != len(candidate.Tasks):
		d.Reasons = append(d.Reasons, ReasonTaskCount)
	case !TasksEqual(previous.Tasks, candidate.Tasks):
		d.Reasons = append(d.Reasons, ReasonTaskChanged)
	}

	d.RemovedLinkIDs = RemovedIDs(linkIDs(previous.Links), linkIDs(candidate.Links))
	switch {
	case len(d.RemovedLinkIDs) > 0:
		d.Reasons = append(d.Reasons, ReasonLinksRemoved)
	case len(previous.Links) != len(candidate.Links):
		d.Reasons = append(d.Reasons, ReasonLinkCount)
	case !LinksEqual(previous.Links, candidate.Links):
		d.Reasons = append(d.Reasons, ReasonLinkChanged)
	}

	d.ShouldApply = len(d.Reasons) > 0
	return d
}

// RemovedIDs returns the ids of previous that are absent from candidate, in
// the order they appear in previous. The result is never nil.
func RemovedIDs(previous, candidate []string) []string {
	present := make(map[string]bool, len(candidate))
	for _, id := range candidate {
		present[id] = true
	}
	removed := []string{}
	seen := make(map[string]bool)
	for _, id := range previous {
		if present[id] || seen[id] {
			continue
		}
		seen[id] = true
		removed = append(removed, id)
	}
	return removed
}

// TasksEqual compares two equally ordered task lists position by position.
func TasksEqual(a, b []domain.Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !FieldsEqual(a[i].Fields(), b[i].Fields()) {
			return false
		}
	}
	return true
}

// LinksEqual compares two equally ordered link lists position by position.
func LinksEqual(a, b []domain.Link) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !FieldsEqual(a[i].Fields(), b[i].Fields()) {
			return false
		}
	}
	return true
}

// FieldsEqual reports whether two records carry the same attributes. Keys
// of both records are checked: a key present on only one side is a
// difference even when the other side would read as a zero value.
func FieldsEqual(x, y map[string]any) bool {
	for k, xv := range x {
		yv, ok := y[k]
		if !ok || !reflect.DeepEqual(xv, yv) {
			return false
		}
	}
	for k := range y {
		if _, ok := x[k]; !ok {
			return false
		}
	}
	return true
}

func taskIDs(tasks []domain.Task) []string {
	ids := make([]string, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	return ids
}

func linkIDs(links []domain.Link) []string {
	ids := make([]string, len(links))
	for i := range links {
		ids[i] = links[i].ID
	}
	return ids
}
