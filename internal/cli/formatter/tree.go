package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/daedaleanai/pgantt/internal/domain"
)

// TreeItem is one task placed in the plan hierarchy.
type TreeItem struct {
	Task        domain.Task
	Level       int
	IsLast      bool
	HasChildren bool
	Collapsed   bool
	Detail      string

	// lastAt[i] reports whether the ancestor at depth i was a last sibling,
	// which decides between a pipe and a blank in the connector prefix.
	lastAt []bool
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// BuildTree walks the task hierarchy depth first. Siblings keep their order
// in s.Tasks, so an ordered snapshot yields an ordered tree. Tasks whose
// parent is unknown, or that sit on a parent cycle, are placed at the root.
// Descendants of ids in collapsed are skipped.
func BuildTree(s domain.Snapshot, collapsed map[string]bool) []TreeItem {
	known := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		known[t.ID] = true
	}
	children := make(map[string][]domain.Task)
	var roots []domain.Task
	for _, t := range s.Tasks {
		if t.IsRoot() || !known[t.Parent] {
			roots = append(roots, t)
			continue
		}
		children[t.Parent] = append(children[t.Parent], t)
	}

	visited := make(map[string]bool, len(s.Tasks))
	var items []TreeItem
	var walk func(siblings []domain.Task, level int, lastAt []bool)
	walk = func(siblings []domain.Task, level int, lastAt []bool) {
		for i, t := range siblings {
			if visited[t.ID] {
				continue
			}
			visited[t.ID] = true
			item := TreeItem{
				Task:        t,
				Level:       level,
				IsLast:      i == len(siblings)-1,
				HasChildren: len(children[t.ID]) > 0,
				Collapsed:   collapsed[t.ID],
				lastAt:      lastAt,
			}
			items = append(items, item)
			if item.HasChildren && !item.Collapsed {
				next := append(append([]bool(nil), lastAt...), item.IsLast)
				walk(children[t.ID], level+1, next)
			}
		}
	}
	walk(roots, 0, nil)

	// Parent cycles leave tasks unreachable from any root.
	for _, t := range s.Tasks {
		if !visited[t.ID] && !hiddenByCollapse(t, s, collapsed) {
			walk([]domain.Task{t}, 0, nil)
		}
	}
	return items
}

func hiddenByCollapse(t domain.Task, s domain.Snapshot, collapsed map[string]bool) bool {
	seen := map[string]bool{t.ID: true}
	for p := t.Parent; !seen[p]; {
		seen[p] = true
		if collapsed[p] {
			return true
		}
		parent, ok := s.TaskByID(p)
		if !ok {
			return false
		}
		p = parent.Parent
	}
	return false
}

// Prefix returns the box-drawing connector drawn before the item's title.
func (it TreeItem) Prefix() string {
	if it.Level == 0 {
		return ""
	}
	var b strings.Builder
	// lastAt[0] belongs to the root level, which draws no connector.
	for i, last := range it.lastAt {
		if i == 0 {
			continue
		}
		if last {
			b.WriteString(treeBlank)
		} else {
			b.WriteString(treePipe)
		}
	}
	if it.IsLast {
		b.WriteString(treeCorner)
	} else {
		b.WriteString(treeBranch)
	}
	return b.String()
}

// Label returns the connector, fold marker and title of the item, styled
// by task state.
func (it TreeItem) Label() string {
	marker := ""
	if it.HasChildren {
		if it.Collapsed {
			marker = StyleDim.Render("▸ ")
		} else {
			marker = StyleDim.Render("▾ ")
		}
	}

	title := it.Task.Text
	if title == "" {
		title = it.Task.ID
	}
	switch {
	case !it.Task.Open:
		title = StyleGreen.Render("✔ ") + Dim(title)
	case it.Task.Type == domain.TaskTypeMilestone:
		title = StyleYellow.Render("◆ ") + title
	case it.Task.Type == domain.TaskTypeProject:
		title = StyleBold.Render(title)
	}
	return StyleDim.Render(it.Prefix()) + marker + title
}

// RenderTree renders items as an indented tree with right-aligned detail
// badges.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	labels := make([]string, len(items))
	width := 0
	for i, item := range items {
		labels[i] = StyleDim.Render(item.Task.ID+" ") + item.Label()
		width = max(width, lipgloss.Width(labels[i]))
	}

	var b strings.Builder
	for i, item := range items {
		if item.Detail == "" {
			b.WriteString(labels[i] + "\n")
			continue
		}
		badge := StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		b.WriteString(PadRight(labels[i], width) + "  " + badge + "\n")
	}
	return b.String()
}
