// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federation

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mark-search/pkg/types"
)

// Snapshot is a saved search response. It can be shown again later
// without contacting the registries.
type Snapshot struct {
	ID       string               `yaml:"id"`
	SavedAt  time.Time            `yaml:"saved_at"`
	Response types.SearchResponse `yaml:"response"`
}

// WriteSnapshot saves resp under dir as <ksuid>.yaml and returns the path.
// KSUIDs sort by creation time, so a directory listing is chronological.
func WriteSnapshot(dir string, resp *types.SearchResponse) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating snapshot directory %s", dir)
	}
	id := ksuid.New()
	snap := Snapshot{
		ID:       id.String(),
		SavedAt:  id.Time().UTC(),
		Response: *resp,
	}
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return "", errors.Wrap(err, "marshaling snapshot")
	}
	path := filepath.Join(dir, snap.ID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing snapshot %s", path)
	}
	return path, nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading snapshot")
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(err, "parsing snapshot %s", path)
	}
	if _, err := ksuid.Parse(snap.ID); err != nil {
		return nil, errors.Wrapf(err, "snapshot %s has an invalid id", path)
	}
	return &snap, nil
}
