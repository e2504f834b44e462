package domain

// Snapshot is the complete task and link state of one project at one point
// in time. Once ordered it is treated as immutable.
type Snapshot struct {
	Tasks []Task `json:"data"`
	Links []Link `json:"links"`
}

// Clone returns a deep copy of the snapshot. Nil slices stay nil.
func (s Snapshot) Clone() Snapshot {
	var out Snapshot
	if s.Tasks != nil {
		out.Tasks = make([]Task, len(s.Tasks))
		for i, t := range s.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	if s.Links != nil {
		out.Links = make([]Link, len(s.Links))
		for i, l := range s.Links {
			out.Links[i] = l.Clone()
		}
	}
	return out
}

// TaskByID returns the task with the given id.
func (s Snapshot) TaskByID(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// IsEmpty reports whether the snapshot has neither tasks nor links.
func (s Snapshot) IsEmpty() bool {
	return len(s.Tasks) == 0 && len(s.Links) == 0
}
