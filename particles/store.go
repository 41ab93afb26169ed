// Package particles provides the per-particle attribute store: named scalar
// and vector arrays registered with a default value and optional sortable /
// reloadable flags. The store owns particle count bookkeeping for structural
// changes (split appends, merge compaction) and keeps every registered array
// aligned through sorting and resizing.
package particles

import (
	"fmt"

	"github.com/silt-sim/silt/geometry"
)

// attrFlags holds registration options for an attribute.
type attrFlags struct {
	sortable   bool
	reloadable bool
}

// Option configures an attribute at registration time.
type Option func(*attrFlags)

// Sortable marks an attribute to be carried through sort permutations.
func Sortable() Option {
	return func(f *attrFlags) { f.sortable = true }
}

// Reloadable marks an attribute to be written to and restored from
// checkpoint snapshots.
func Reloadable() Option {
	return func(f *attrFlags) { f.reloadable = true }
}

// ScalarAttr is a named per-particle scalar array.
type ScalarAttr struct {
	Name    string
	Default float64
	Data    []float64
	flags   attrFlags
}

// VectorAttr is a named per-particle vector array.
type VectorAttr struct {
	Name    string
	Default geometry.Vec
	Data    []geometry.Vec
	flags   attrFlags
}

// Store holds all registered per-particle attributes for one body.
type Store struct {
	count int

	scalars map[string]*ScalarAttr
	vectors map[string]*VectorAttr

	// Registration order, for deterministic iteration.
	scalarOrder []string
	vectorOrder []string
}

// NewStore creates a store for count particles with no attributes.
func NewStore(count int) *Store {
	return &Store{
		count:   count,
		scalars: make(map[string]*ScalarAttr),
		vectors: make(map[string]*VectorAttr),
	}
}

// Count returns the current particle count.
func (s *Store) Count() int { return s.count }

// RegisterScalar registers a named scalar attribute filled with def.
// Registration is idempotent: a second call with the same name returns the
// existing attribute and ignores def and opts.
func (s *Store) RegisterScalar(name string, def float64, opts ...Option) *ScalarAttr {
	if a, ok := s.scalars[name]; ok {
		return a
	}
	a := &ScalarAttr{Name: name, Default: def, Data: make([]float64, s.count)}
	for i := range a.Data {
		a.Data[i] = def
	}
	for _, opt := range opts {
		opt(&a.flags)
	}
	s.scalars[name] = a
	s.scalarOrder = append(s.scalarOrder, name)
	return a
}

// RegisterVector registers a named vector attribute filled with def.
// Like RegisterScalar, registration is idempotent.
func (s *Store) RegisterVector(name string, def geometry.Vec, opts ...Option) *VectorAttr {
	if a, ok := s.vectors[name]; ok {
		return a
	}
	a := &VectorAttr{Name: name, Default: def, Data: make([]geometry.Vec, s.count)}
	for i := range a.Data {
		a.Data[i] = def
	}
	for _, opt := range opts {
		opt(&a.flags)
	}
	s.vectors[name] = a
	s.vectorOrder = append(s.vectorOrder, name)
	return a
}

// Scalar returns the named scalar attribute, or nil if not registered.
func (s *Store) Scalar(name string) *ScalarAttr { return s.scalars[name] }

// Vector returns the named vector attribute, or nil if not registered.
func (s *Store) Vector(name string) *VectorAttr { return s.vectors[name] }

// Append grows every attribute by n particles filled with their defaults
// and returns the index of the first new particle.
func (s *Store) Append(n int) int {
	start := s.count
	s.count += n
	for _, name := range s.scalarOrder {
		a := s.scalars[name]
		for i := 0; i < n; i++ {
			a.Data = append(a.Data, a.Default)
		}
	}
	for _, name := range s.vectorOrder {
		a := s.vectors[name]
		for i := 0; i < n; i++ {
			a.Data = append(a.Data, a.Default)
		}
	}
	return start
}

// Resize sets the particle count to n, extending every attribute with its
// default value or truncating from the tail.
func (s *Store) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("particles: count must be non-negative, got %d", n)
	}
	if n >= s.count {
		s.Append(n - s.count)
		return nil
	}
	for _, name := range s.scalarOrder {
		a := s.scalars[name]
		a.Data = a.Data[:n]
	}
	for _, name := range s.vectorOrder {
		a := s.vectors[name]
		a.Data = a.Data[:n]
	}
	s.count = n
	return nil
}

// Compact removes every particle i with keep[i] == false from all
// attributes and returns the new count. len(keep) must equal Count.
func (s *Store) Compact(keep []bool) (int, error) {
	if len(keep) != s.count {
		return 0, fmt.Errorf("particles: keep mask length %d does not match count %d", len(keep), s.count)
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	for _, name := range s.scalarOrder {
		a := s.scalars[name]
		out := a.Data[:0]
		for i, k := range keep {
			if k {
				out = append(out, a.Data[i])
			}
		}
		a.Data = out
	}
	for _, name := range s.vectorOrder {
		a := s.vectors[name]
		out := a.Data[:0]
		for i, k := range keep {
			if k {
				out = append(out, a.Data[i])
			}
		}
		a.Data = out
	}
	s.count = n
	return n, nil
}

// ApplySort reorders all sortable attributes so that new position i holds
// the value previously at perm[i]. Non-sortable attributes are untouched.
func (s *Store) ApplySort(perm []int) error {
	if len(perm) != s.count {
		return fmt.Errorf("particles: permutation length %d does not match count %d", len(perm), s.count)
	}
	for _, name := range s.scalarOrder {
		a := s.scalars[name]
		if !a.flags.sortable {
			continue
		}
		tmp := make([]float64, len(a.Data))
		for i, j := range perm {
			tmp[i] = a.Data[j]
		}
		copy(a.Data, tmp)
	}
	for _, name := range s.vectorOrder {
		a := s.vectors[name]
		if !a.flags.sortable {
			continue
		}
		tmp := make([]geometry.Vec, len(a.Data))
		for i, j := range perm {
			tmp[i] = a.Data[j]
		}
		copy(a.Data, tmp)
	}
	return nil
}
