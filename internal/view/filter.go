package view

import (
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
)

// Filter returns the part of an ordered snapshot the settings make visible.
// Closed and unscheduled tasks are hidden unless enabled. With a date range
// set and ShowTasksOutsideTimescale off, dated tasks not overlapping the
// range are hidden. A visible task whose parent is hidden is attached to its
// nearest visible ancestor. Links touching a hidden task are dropped. The
// input is not modified and relative order is kept.
func Filter(s domain.Snapshot, settings domain.Settings) domain.Snapshot {
	byID := make(map[string]domain.Task, len(s.Tasks))
	visible := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		byID[t.ID] = t
		visible[t.ID] = shown(t, settings)
	}

	out := domain.Snapshot{Tasks: make([]domain.Task, 0, len(s.Tasks))}
	for _, t := range s.Tasks {
		if !visible[t.ID] {
			continue
		}
		t = t.Clone()
		t.Parent = visibleAncestor(t, byID, visible)
		out.Tasks = append(out.Tasks, t)
	}

	out.Links = make([]domain.Link, 0, len(s.Links))
	for _, l := range s.Links {
		if visible[l.Source] && visible[l.Target] {
			out.Links = append(out.Links, l.Clone())
		}
	}
	return out
}

func shown(t domain.Task, s domain.Settings) bool {
	if !t.Open && !s.ShowTasksClosed {
		return false
	}
	if !t.HasStartDate() {
		return s.ShowTasksUnscheduled
	}
	if s.ShowTasksOutsideTimescale || (s.StartDate == nil && s.EndDate == nil) {
		return true
	}
	start, end, ok := Span(t)
	if !ok {
		return true
	}
	if s.StartDate != nil && !end.After(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && start.After(*s.EndDate) {
		return false
	}
	return true
}

func visibleAncestor(t domain.Task, byID map[string]domain.Task, visible map[string]bool) string {
	seen := map[string]bool{t.ID: true}
	for p := t.Parent; !isRootID(p); {
		if visible[p] {
			return p
		}
		parent, ok := byID[p]
		if !ok || seen[p] {
			// Dangling or cyclic chains keep their original parent.
			return t.Parent
		}
		seen[p] = true
		p = parent.Parent
	}
	return domain.RootID
}

func isRootID(id string) bool {
	return id == "" || id == domain.RootID
}

// Span returns the first day of the task and the day after its last day.
// Milestones and zero-length tasks occupy one day.
func Span(t domain.Task) (start, end time.Time, ok bool) {
	start, err := time.Parse(domain.DateLayout, t.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	days := t.Duration
	if days < 1 {
		days = 1
	}
	return start, start.AddDate(0, 0, days), true
}
