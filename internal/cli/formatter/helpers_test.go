package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFormatDays(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{0, "-"},
		{-3, "-"},
		{1, "1 day"},
		{12, "12 days"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDays(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "abcdef", PadRight("abcdef", 3))
}

func TestStatusPill(t *testing.T) {
	assert.Contains(t, StatusPill(true), "Open")
	assert.Contains(t, StatusPill(false), "Closed")
}

func TestTaskTypeBadge(t *testing.T) {
	assert.Contains(t, TaskTypeBadge(domain.TaskTypeProject), "project")
	assert.Contains(t, TaskTypeBadge(domain.TaskTypeMilestone), "milestone")
	assert.Contains(t, TaskTypeBadge(""), "task")
}

func TestRenderSettings(t *testing.T) {
	from := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	s := domain.DefaultSettings()
	s.StartDate = &from
	s.DefaultProject = "PHID-PROJ-1"

	got := RenderSettings(s)

	assert.Contains(t, got, "Days")
	assert.Contains(t, got, "2021-03-01")
	assert.Contains(t, got, "PHID-PROJ-1")
	assert.Len(t, strings.Split(got, "\n"), 7)
}

func TestRenderTable(t *testing.T) {
	got := RenderTable([]string{"NAME", "PHID"}, [][]string{
		{"Apollo", "PHID-PROJ-1"},
		{"Gemini launch", "PHID-PROJ-22"},
	})

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "─")
	assert.Equal(t, strings.Index(lines[2], "PHID-PROJ-1"), strings.Index(lines[3], "PHID-PROJ-22"))
}

func TestRenderTable_NoHeaders(t *testing.T) {
	assert.Empty(t, RenderTable(nil, [][]string{{"x"}}))
}

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		name     string
		progress float32
		contains string
	}{
		{"zero", 0, "0%"},
		{"half", 0.5, "50%"},
		{"full", 1, "100%"},
		{"percentage", 40, "40%"},
		{"negative", -1, "0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, RenderProgress(tt.progress, 10), tt.contains)
		})
	}
}
