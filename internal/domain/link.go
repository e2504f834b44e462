package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Link is a dependency between two tasks.
type Link struct {
	ID     string
	Source string
	Target string
	Type   LinkKind

	Extra map[string]any
}

// LinkID returns the identifier the server assigns to a link: the source,
// target and wire kind joined with '#'.
func LinkID(source, target string, kind LinkKind) string {
	return source + "#" + target + "#" + string(kind)
}

// ParseLinkID splits a server-assigned link identifier into its parts.
func ParseLinkID(id string) (source, target string, kind LinkKind, err error) {
	fragments := strings.Split(id, "#")
	if len(fragments) != 3 {
		return "", "", "", fmt.Errorf("unable to decode link ID: %s", id)
	}
	return fragments[0], fragments[1], LinkKind(fragments[2]), nil
}

// Clone returns a deep copy of the link.
func (l Link) Clone() Link {
	l.Extra = cloneExtra(l.Extra)
	return l
}

// Fields returns the attributes of the link keyed by their wire names.
func (l *Link) Fields() map[string]any {
	f := make(map[string]any, 4+len(l.Extra))
	for k, v := range l.Extra {
		f[k] = v
	}
	f["id"] = l.ID
	f["source"] = l.Source
	f["target"] = l.Target
	f["type"] = string(l.Type)
	return f
}

var linkKeys = map[string]bool{"id": true, "source": true, "target": true, "type": true}

type linkWire struct {
	ID     any `json:"id"`
	Source any `json:"source"`
	Target any `json:"target"`
	Type   any `json:"type"`
}

func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Fields())
}

func (l *Link) UnmarshalJSON(data []byte) error {
	var w linkWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	extra, err := decodeExtra(data, linkKeys)
	if err != nil {
		return err
	}
	*l = Link{
		ID:     CanonicalID(w.ID),
		Source: CanonicalID(w.Source),
		Target: CanonicalID(w.Target),
		Type:   LinkKind(CanonicalID(w.Type)),
		Extra:  extra,
	}
	return nil
}
