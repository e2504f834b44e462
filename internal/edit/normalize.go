package edit

import (
	"fmt"
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
)

// NormalizeTask puts the task's id and parent into canonical string form
// and derives the unscheduled flag from the start date.
func NormalizeTask(t domain.Task) domain.Task {
	t = t.Clone()
	t.ID = domain.CanonicalID(t.ID)
	t.Parent = domain.CanonicalID(t.Parent)
	t.Normalize()
	return t
}

// NormalizeLink canonicalizes endpoint ids and fills in the link id.
func NormalizeLink(l domain.Link) domain.Link {
	l = l.Clone()
	l.Source = domain.CanonicalID(l.Source)
	l.Target = domain.CanonicalID(l.Target)
	if l.ID == "" {
		l.ID = domain.LinkID(l.Source, l.Target, l.Type)
	}
	return l
}

func validateTask(t domain.Task, creating bool) error {
	if !creating && t.ID == "" {
		return fmt.Errorf("%w: task id is required", ErrInvalidEdit)
	}
	if creating && t.Text == "" {
		return fmt.Errorf("%w: task text is required", ErrInvalidEdit)
	}
	if t.ID != "" && t.ID == t.Parent {
		return fmt.Errorf("%w: task %s cannot be its own parent", ErrInvalidEdit, t.ID)
	}
	if t.Type != "" && !domain.ValidTaskTypes[t.Type] {
		return fmt.Errorf("%w: unknown task type %q", ErrInvalidEdit, t.Type)
	}
	if t.StartDate != "" {
		if _, err := time.Parse(domain.DateLayout, t.StartDate); err != nil {
			return fmt.Errorf("%w: start date %q is not YYYY-MM-DD", ErrInvalidEdit, t.StartDate)
		}
	}
	if t.Duration < 0 {
		return fmt.Errorf("%w: negative duration %d", ErrInvalidEdit, t.Duration)
	}
	if t.Progress < 0 || t.Progress > 1 {
		return fmt.Errorf("%w: progress %.2f outside [0, 1]", ErrInvalidEdit, t.Progress)
	}
	return nil
}

func validateLink(l domain.Link) error {
	if l.Source == "" || l.Target == "" {
		return fmt.Errorf("%w: link needs a source and a target", ErrInvalidEdit)
	}
	if l.Source == l.Target {
		return fmt.Errorf("%w: task %s cannot depend on itself", ErrInvalidEdit, l.Source)
	}
	if _, ok := domain.ParseLinkKind(string(l.Type)); !ok {
		return fmt.Errorf("%w: unknown link type %q", ErrInvalidEdit, l.Type)
	}
	return nil
}
