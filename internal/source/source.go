package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/daedaleanai/pgantt/internal/client"
	"github.com/daedaleanai/pgantt/internal/domain"
)

// SnapshotFetcher is the subset of client.Client used by HTTP.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context, projectID string, includeClosed bool) (domain.Snapshot, error)
}

// HTTP fetches snapshots from the planning server.
type HTTP struct {
	Client        SnapshotFetcher
	IncludeClosed bool
}

// NewHTTP wraps a planning server client.
func NewHTTP(c *client.Client, includeClosed bool) *HTTP {
	return &HTTP{Client: c, IncludeClosed: includeClosed}
}

// Fetch returns the current snapshot of the project.
func (h *HTTP) Fetch(ctx context.Context, projectID string) (domain.Snapshot, error) {
	return h.Client.Snapshot(ctx, projectID, h.IncludeClosed)
}

// File reads snapshots from a JSON file on disk. The file holds either a bare
// snapshot ({"data": [...], "links": [...]}) or the server's response
// envelope around one. The project id is ignored.
type File struct {
	Path string
}

// Fetch reads and decodes the file.
func (f *File) Fetch(ctx context.Context, _ string) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("reading snapshot file: %w", err)
	}

	snap, err := Decode(data)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("decoding %s: %w", f.Path, err)
	}
	return snap, nil
}

// Decode parses a bare or enveloped snapshot and normalizes its tasks.
func Decode(data []byte) (domain.Snapshot, error) {
	var probe struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return domain.Snapshot{}, err
	}

	payload := data
	if probe.Status != "" {
		if probe.Status != client.StatusSuccess {
			return domain.Snapshot{}, fmt.Errorf("snapshot envelope has status %s", probe.Status)
		}
		payload = probe.Data
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.Snapshot{}, err
	}
	for i := range snap.Tasks {
		snap.Tasks[i].Normalize()
	}
	return snap, nil
}
