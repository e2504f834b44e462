package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DateLayout is the calendar date format used for task start dates.
const DateLayout = "2006-01-02"

// Task is one schedulable unit of work as the planning server reports it.
type Task struct {
	ID          string
	Parent      string
	Text        string
	Type        TaskType
	StartDate   string
	Duration    int
	Progress    float32
	Open        bool
	Unscheduled bool
	Column      string
	URL         string

	// Extra holds attributes the server sent that have no dedicated field.
	Extra map[string]any
}

// IsRoot reports whether the task has no parent.
func (t *Task) IsRoot() bool {
	return t.Parent == "" || t.Parent == RootID
}

// HasStartDate reports whether the task is scheduled on the calendar.
func (t *Task) HasStartDate() bool {
	return t.StartDate != ""
}

// Normalize derives Unscheduled from the start date and maps an empty parent
// to the root sentinel.
func (t *Task) Normalize() {
	if t.Parent == "" {
		t.Parent = RootID
	}
	if !t.HasStartDate() {
		t.Unscheduled = true
	}
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	t.Extra = cloneExtra(t.Extra)
	return t
}

// Fields returns the attributes of the task keyed by their wire names.
// Optional attributes are only present when set, matching the JSON encoding.
func (t *Task) Fields() map[string]any {
	f := make(map[string]any, 12+len(t.Extra))
	for k, v := range t.Extra {
		f[k] = v
	}
	f["id"] = t.ID
	f["text"] = t.Text
	f["progress"] = t.Progress
	f["open"] = t.Open
	f["unscheduled"] = t.Unscheduled
	f["column"] = t.Column
	f["url"] = t.URL
	if t.Parent != "" {
		f["parent"] = t.Parent
	}
	if t.Type != "" {
		f["type"] = string(t.Type)
	}
	if t.StartDate != "" {
		f["start_date"] = t.StartDate
	}
	if t.Duration != 0 {
		f["duration"] = t.Duration
	}
	return f
}

var taskKeys = map[string]bool{
	"id": true, "parent": true, "text": true, "type": true, "start_date": true,
	"duration": true, "progress": true, "open": true, "unscheduled": true,
	"column": true, "url": true,
}

type taskWire struct {
	ID          any      `json:"id"`
	Parent      any      `json:"parent,omitempty"`
	Text        string   `json:"text"`
	Type        TaskType `json:"type,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	Duration    any      `json:"duration,omitempty"`
	Progress    float32  `json:"progress"`
	Open        bool     `json:"open"`
	Unscheduled bool     `json:"unscheduled"`
	Column      string   `json:"column"`
	URL         string   `json:"url"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	f := t.Fields()
	return json.Marshal(f)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	dur, err := parseDuration(w.Duration)
	if err != nil {
		return fmt.Errorf("task %v: %w", w.ID, err)
	}
	extra, err := decodeExtra(data, taskKeys)
	if err != nil {
		return err
	}
	*t = Task{
		ID:          CanonicalID(w.ID),
		Parent:      CanonicalID(w.Parent),
		Text:        w.Text,
		Type:        w.Type,
		StartDate:   w.StartDate,
		Duration:    dur,
		Progress:    w.Progress,
		Open:        w.Open,
		Unscheduled: w.Unscheduled,
		Column:      w.Column,
		URL:         w.URL,
		Extra:       extra,
	}
	return nil
}

// The server has historically sent durations both as numbers and as strings.
func parseDuration(v any) (int, error) {
	switch d := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int(d), nil
	case string:
		if d == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(d))
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q", d)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("malformed duration %v", v)
	}
}

// CanonicalID converts an identifier decoded from JSON (string or number)
// into its canonical string form. Nil maps to the empty string.
func CanonicalID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	case float64:
		if id == math.Trunc(id) {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

func decodeExtra(data []byte, known map[string]bool) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var extra map[string]any
	for k, v := range raw {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra, nil
}

func cloneExtra(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	// Values come from encoding/json, so a round trip is a faithful deep copy.
	data, err := json.Marshal(m)
	if err != nil {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
