package domain

// RootID is the parent sentinel of top-level tasks.
const RootID = "0"

type TaskType string

const (
	TaskTypeTask      TaskType = "task"
	TaskTypeMilestone TaskType = "milestone"
	TaskTypeProject   TaskType = "project"
)

// ValidTaskTypes is the canonical set of accepted task type strings.
var ValidTaskTypes = map[TaskType]bool{
	TaskTypeTask: true, TaskTypeMilestone: true, TaskTypeProject: true,
}

// LinkKind is the dependency relationship between two tasks. The values are
// the ones the chart widget and the server exchange on the wire.
type LinkKind string

const (
	LinkFinishToStart  LinkKind = "0"
	LinkStartToStart   LinkKind = "1"
	LinkFinishToFinish LinkKind = "2"
	LinkStartToFinish  LinkKind = "3"
)

// String returns the short mnemonic of the link kind (FS, SS, FF, SF).
func (k LinkKind) String() string {
	switch k {
	case LinkFinishToStart:
		return "FS"
	case LinkStartToStart:
		return "SS"
	case LinkFinishToFinish:
		return "FF"
	case LinkStartToFinish:
		return "SF"
	default:
		return string(k)
	}
}

// ParseLinkKind accepts either the wire value ("0".."3") or the mnemonic.
func ParseLinkKind(s string) (LinkKind, bool) {
	switch s {
	case "0", "FS", "fs":
		return LinkFinishToStart, true
	case "1", "SS", "ss":
		return LinkStartToStart, true
	case "2", "FF", "ff":
		return LinkFinishToFinish, true
	case "3", "SF", "sf":
		return LinkStartToFinish, true
	}
	return "", false
}

type Zoom string

const (
	ZoomDays     Zoom = "Days"
	ZoomWeeks    Zoom = "Weeks"
	ZoomMonths   Zoom = "Months"
	ZoomQuarters Zoom = "Quarters"
	ZoomYears    Zoom = "Years"
)

// Zooms lists the zoom levels from finest to coarsest.
var Zooms = []Zoom{ZoomDays, ZoomWeeks, ZoomMonths, ZoomQuarters, ZoomYears}

// ValidZoom reports whether z is one of the known zoom levels.
func ValidZoom(z Zoom) bool {
	for _, known := range Zooms {
		if z == known {
			return true
		}
	}
	return false
}
