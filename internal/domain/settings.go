package domain

import (
	"errors"
	"time"
)

// Settings are the user-facing view settings. They only affect what the
// renderer displays, never the stored snapshot or its ordering.
type Settings struct {
	StartDate                 *time.Time
	EndDate                   *time.Time
	Zoom                      Zoom
	ShowTasksOutsideTimescale bool
	ShowTasksUnscheduled      bool
	ShowTasksClosed           bool

	// DefaultProject is opened when no project is named on the command line.
	DefaultProject string
}

// DefaultSettings returns the settings a new user starts with.
func DefaultSettings() Settings {
	return Settings{
		Zoom:                      ZoomDays,
		ShowTasksOutsideTimescale: true,
	}
}

// HasRange reports whether both ends of the date range are set.
func (s *Settings) HasRange() bool {
	return s.StartDate != nil && s.EndDate != nil
}

// Validate checks the zoom level and that the range is not inverted.
func (s *Settings) Validate() error {
	if !ValidZoom(s.Zoom) {
		return errors.New("invalid zoom level " + string(s.Zoom))
	}
	if s.HasRange() && s.EndDate.Before(*s.StartDate) {
		return errors.New("end date before start date")
	}
	return nil
}
