package formatter

import (
	"math"
	"strings"
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/view"
)

// DefaultLabelWidth is the width of the task column left of the timeline.
const DefaultLabelWidth = 36

// GanttOptions controls the timeline drawn by RenderGantt.
type GanttOptions struct {
	From       time.Time
	To         time.Time
	Zoom       domain.Zoom
	LabelWidth int
	// Width caps the total line width; zero means unlimited.
	Width int
	// Cursor is the index of the highlighted row, or -1.
	Cursor int
}

func (o GanttOptions) labelWidth() int {
	if o.LabelWidth <= 0 {
		return DefaultLabelWidth
	}
	return o.LabelWidth
}

// Cells returns how many timeline columns the options produce.
func (o GanttOptions) Cells() int {
	days := o.To.Sub(o.From).Hours() / 24
	n := int(math.Ceil(days / float64(view.CellDays(o.Zoom))))
	if o.Width > 0 {
		n = min(n, o.Width-o.labelWidth()-1)
	}
	return max(n, 1)
}

func (o GanttOptions) cellStart(i int) time.Time {
	return o.From.AddDate(0, 0, i*view.CellDays(o.Zoom))
}

// RenderGantt renders a header line followed by one bar line per item.
func RenderGantt(items []TreeItem, opts GanttOptions) string {
	var b strings.Builder
	b.WriteString(GanttHeader(opts) + "\n")
	for i, item := range items {
		b.WriteString(GanttRow(item, opts, i == opts.Cursor) + "\n")
	}
	return b.String()
}

// GanttHeader renders the task column title and the date scale.
func GanttHeader(opts GanttOptions) string {
	cells := opts.Cells()
	scale := []rune(strings.Repeat(" ", cells))
	for i := 0; i < cells; {
		label := []rune(scaleLabel(opts.cellStart(i), opts.Zoom))
		if i+len(label) > cells {
			break
		}
		copy(scale[i:], label)
		i += len(label) + 2
	}
	return StyleHeader.Render(PadRight("TASK", opts.labelWidth())) + " " + StyleDim.Render(string(scale))
}

func scaleLabel(t time.Time, z domain.Zoom) string {
	switch z {
	case domain.ZoomMonths:
		return t.Format("Jan 06")
	case domain.ZoomQuarters:
		return "Q" + string(rune('1'+(int(t.Month())-1)/3)) + t.Format(" 06")
	case domain.ZoomYears:
		return t.Format("2006")
	default:
		return t.Format("Jan 02")
	}
}

// GanttRow renders the label and bar of a single task.
func GanttRow(item TreeItem, opts GanttOptions, selected bool) string {
	plain := item.Prefix() + foldMarker(item) + title(item.Task)
	label := PadRight(Truncate(plain, opts.labelWidth()), opts.labelWidth())
	switch {
	case selected:
		label = StyleYellowBold.Render(label)
	case !item.Task.Open:
		label = StyleDim.Render(label)
	default:
		label = StyleFg.Render(label)
	}
	return label + " " + ganttBar(item.Task, opts)
}

func foldMarker(item TreeItem) string {
	switch {
	case !item.HasChildren:
		return ""
	case item.Collapsed:
		return "▸ "
	default:
		return "▾ "
	}
}

func title(t domain.Task) string {
	if t.Text == "" {
		return t.ID
	}
	return t.Text
}

func ganttBar(t domain.Task, opts GanttOptions) string {
	cells := opts.Cells()
	start, end, ok := view.Span(t)
	if !ok {
		return Dim(Truncate("unscheduled", cells))
	}

	first, last := -1, -1
	for i := 0; i < cells; i++ {
		cs := opts.cellStart(i)
		ce := opts.cellStart(i + 1)
		if start.Before(ce) && end.After(cs) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		if !end.After(opts.From) {
			return Dim("◂")
		}
		return Dim(strings.Repeat(" ", cells-1) + "▸")
	}

	style := TaskTypeStyle(t)
	var bar string
	if t.Type == domain.TaskTypeMilestone {
		bar = style.Render("◆")
	} else {
		n := last - first + 1
		done := int(math.Round(clampProgress(t.Progress) * float64(n)))
		if !t.Open {
			done = n
		}
		bar = style.Render(strings.Repeat(filledBlock, done) + strings.Repeat(emptyBlock, n-done))
	}
	return strings.Repeat(" ", first) + bar
}
