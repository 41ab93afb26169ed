package particles

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/silt-sim/silt/geometry"
)

// SnapshotVersion is incremented when the snapshot format changes.
const SnapshotVersion = 1

// Snapshot holds the reloadable attributes of a store for checkpointing.
type Snapshot struct {
	Version int `json:"version"`
	Count   int `json:"count"`

	Scalars map[string][]float64      `json:"scalars,omitempty"`
	Vectors map[string][]geometry.Vec `json:"vectors,omitempty"`
}

// Snapshot captures every reloadable attribute.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Count:   s.count,
		Scalars: make(map[string][]float64),
		Vectors: make(map[string][]geometry.Vec),
	}
	for _, name := range s.scalarOrder {
		a := s.scalars[name]
		if !a.flags.reloadable {
			continue
		}
		data := make([]float64, len(a.Data))
		copy(data, a.Data)
		snap.Scalars[name] = data
	}
	for _, name := range s.vectorOrder {
		a := s.vectors[name]
		if !a.flags.reloadable {
			continue
		}
		data := make([]geometry.Vec, len(a.Data))
		copy(data, a.Data)
		snap.Vectors[name] = data
	}
	return snap
}

// Restore writes snapshot data back into the store's reloadable attributes.
// The snapshot's particle count must match the store's.
func (s *Store) Restore(snap *Snapshot) error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("particles: snapshot version %d, expected %d", snap.Version, SnapshotVersion)
	}
	if snap.Count != s.count {
		return fmt.Errorf("particles: snapshot count %d does not match store count %d", snap.Count, s.count)
	}
	for name, data := range snap.Scalars {
		a := s.scalars[name]
		if a == nil || !a.flags.reloadable {
			continue
		}
		if len(data) != s.count {
			return fmt.Errorf("particles: scalar %q has %d entries, expected %d", name, len(data), s.count)
		}
		copy(a.Data, data)
	}
	for name, data := range snap.Vectors {
		a := s.vectors[name]
		if a == nil || !a.flags.reloadable {
			continue
		}
		if len(data) != s.count {
			return fmt.Errorf("particles: vector %q has %d entries, expected %d", name, len(data), s.count)
		}
		copy(a.Data, data)
	}
	return nil
}

// SaveSnapshot writes a snapshot to path as indented JSON.
func SaveSnapshot(snap *Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot from path.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
