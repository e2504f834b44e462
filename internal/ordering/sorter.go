package ordering

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/daedaleanai/pgantt/internal/domain"
)

// unscheduledKey sorts after every real YYYY-MM-DD date.
const unscheduledKey = "Z"

var creationSeqPattern = regexp.MustCompile(`T(\d+)`)

// CreationSequence extracts the task number from an origin URL such as
// "https://phab.example.com/T123". The last "T<digits>" token wins. It
// returns false when the URL carries no parseable number.
func CreationSequence(url string) (int, bool) {
	matches := creationSeqPattern.FindAllStringSubmatch(url, -1)
	if len(matches) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0, false
	}
	return n, true
}

type sortKey struct {
	level  int
	date   string
	seq    int
	hasSeq bool
	id     string
}

func less(a, b sortKey) bool {
	// 1. Level: parents before any descendant.
	if a.level != b.level {
		return a.level < b.level
	}

	// 2. Start date, unscheduled last.
	if a.date != b.date {
		return a.date < b.date
	}

	// 3. Creation sequence, tasks without one after those with one.
	if a.hasSeq != b.hasSeq {
		return a.hasSeq
	}
	if a.seq != b.seq {
		return a.seq < b.seq
	}

	// 4. Task ID (lexical)
	return a.id < b.id
}

// Order returns a copy of s with tasks in rendering order:
// 1. Level: fewer ancestors first
// 2. Start date: earliest first (unscheduled last)
// 3. Creation sequence: oldest first (missing last)
// 4. Task ID: lexical ascending
//
// Links are sorted by ID. The input snapshot is not modified, and ordering
// an already ordered snapshot returns the same sequence.
func Order(s domain.Snapshot) domain.Snapshot {
	out := s.Clone()

	levels := Levels(out.Tasks)
	type entry struct {
		task domain.Task
		key  sortKey
	}
	entries := make([]entry, len(out.Tasks))
	for i, t := range out.Tasks {
		k := sortKey{level: levels[t.ID], date: t.StartDate, id: t.ID}
		if k.date == "" {
			k.date = unscheduledKey
		}
		k.seq, k.hasSeq = CreationSequence(t.URL)
		entries[i] = entry{task: t, key: k}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i].key, entries[j].key)
	})
	for i := range entries {
		out.Tasks[i] = entries[i].task
	}

	sort.SliceStable(out.Links, func(i, j int) bool {
		return out.Links[i].ID < out.Links[j].ID
	})

	return out
}
