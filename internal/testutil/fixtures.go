package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/google/uuid"
)

var testTaskCounter atomic.Int64

// Task options
type TaskOption func(*domain.Task)

func WithParent(id string) TaskOption {
	return func(t *domain.Task) {
		t.Parent = id
	}
}

func WithStart(date string) TaskOption {
	return func(t *domain.Task) {
		t.StartDate = date
		t.Unscheduled = date == ""
	}
}

func WithDuration(days int) TaskOption {
	return func(t *domain.Task) {
		t.Duration = days
	}
}

func WithText(text string) TaskOption {
	return func(t *domain.Task) {
		t.Text = text
	}
}

func WithType(typ domain.TaskType) TaskOption {
	return func(t *domain.Task) {
		t.Type = typ
	}
}

func WithClosed() TaskOption {
	return func(t *domain.Task) {
		t.Open = false
	}
}

func WithProgress(p float32) TaskOption {
	return func(t *domain.Task) {
		t.Progress = p
	}
}

// WithSeq sets the origin URL so the task carries creation sequence n.
func WithSeq(n int) TaskOption {
	return func(t *domain.Task) {
		t.URL = fmt.Sprintf("https://phab.example.com/T%d", n)
	}
}

func WithURL(url string) TaskOption {
	return func(t *domain.Task) {
		t.URL = url
	}
}

func WithExtra(key string, value any) TaskOption {
	return func(t *domain.Task) {
		if t.Extra == nil {
			t.Extra = make(map[string]any)
		}
		t.Extra[key] = value
	}
}

// NewTestTask builds an open root task. When id looks like "T<n>" the origin
// URL carries creation sequence n, otherwise a fresh sequence is allocated.
func NewTestTask(id string, opts ...TaskOption) domain.Task {
	t := domain.Task{
		ID:          id,
		Parent:      domain.RootID,
		Text:        "Task " + id,
		Type:        domain.TaskTypeTask,
		Open:        true,
		Unscheduled: true,
		Column:      "PHID-PCOL-backlog",
	}
	if strings.HasPrefix(id, "T") && len(id) > 1 && strings.Trim(id[1:], "0123456789") == "" {
		t.URL = "https://phab.example.com/" + id
	} else {
		t.URL = fmt.Sprintf("https://phab.example.com/T%d", 1000+testTaskCounter.Add(1))
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// NewTestLink builds a link with the server's id scheme.
func NewTestLink(source, target string, kind domain.LinkKind) domain.Link {
	return domain.Link{
		ID:     domain.LinkID(source, target, kind),
		Source: source,
		Target: target,
		Type:   kind,
	}
}

// NewTestSnapshot assembles a snapshot from tasks and optional links.
func NewTestSnapshot(tasks []domain.Task, links ...domain.Link) domain.Snapshot {
	return domain.Snapshot{Tasks: tasks, Links: links}
}

func NewTestProject(name string) domain.Project {
	return domain.Project{
		Name: name,
		PHID: "PHID-PROJ-" + uuid.New().String()[:8],
		Columns: []domain.Column{
			{Name: "Backlog", PHID: "PHID-PCOL-backlog"},
			{Name: "Doing", PHID: "PHID-PCOL-doing"},
		},
	}
}

// TaskIDs returns the ids of tasks in order.
func TaskIDs(tasks []domain.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
