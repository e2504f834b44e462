package view

import (
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
)

// DefaultWindowDays is the width of the timeline when nothing is dated.
const DefaultWindowDays = 30

// CellDays is the number of days one timeline column covers at a zoom level.
func CellDays(z domain.Zoom) int {
	switch z {
	case domain.ZoomWeeks:
		return 7
	case domain.ZoomMonths:
		return 30
	case domain.ZoomQuarters:
		return 91
	case domain.ZoomYears:
		return 365
	default:
		return 1
	}
}

// Window returns the timeline range to draw: the configured range when set,
// otherwise the span of the dated tasks, otherwise DefaultWindowDays from
// today. Open ends of a half-set range are filled from the tasks.
func Window(s domain.Snapshot, settings domain.Settings, today time.Time) (from, to time.Time) {
	today = truncateDay(today)

	var (
		minStart, maxEnd time.Time
		dated            bool
	)
	for _, t := range s.Tasks {
		start, end, ok := Span(t)
		if !ok {
			continue
		}
		if !dated || start.Before(minStart) {
			minStart = start
		}
		if !dated || end.After(maxEnd) {
			maxEnd = end
		}
		dated = true
	}
	if !dated {
		minStart, maxEnd = today, today.AddDate(0, 0, DefaultWindowDays)
	}

	from, to = minStart, maxEnd
	if settings.StartDate != nil {
		from = truncateDay(*settings.StartDate)
	}
	if settings.EndDate != nil {
		to = truncateDay(*settings.EndDate).AddDate(0, 0, 1)
	}
	if !to.After(from) {
		to = from.AddDate(0, 0, 1)
	}
	return from, to
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
