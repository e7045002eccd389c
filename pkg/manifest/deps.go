package manifest

import "iter"

// DepsSet is a dependency table that remembers declaration order.
// The zero value and a nil *DepsSet are both empty and safe to read.
type DepsSet struct {
	names []string
	deps  map[string]Dependency
}

// NewDepsSet returns an empty dependency table.
func NewDepsSet() *DepsSet {
	return &DepsSet{deps: make(map[string]Dependency)}
}

// Set adds or replaces the dependency stored under name.
// A new name is appended after all existing ones.
func (s *DepsSet) Set(name string, d Dependency) {
	if s.deps == nil {
		s.deps = make(map[string]Dependency)
	}
	if _, ok := s.deps[name]; !ok {
		s.names = append(s.names, name)
	}
	s.deps[name] = d
}

// Get returns the dependency stored under name.
func (s *DepsSet) Get(name string) (Dependency, bool) {
	if s == nil {
		return Dependency{}, false
	}
	d, ok := s.deps[name]
	return d, ok
}

// Len returns the number of dependencies.
func (s *DepsSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns dependency names in declaration order.
func (s *DepsSet) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// All iterates dependencies in declaration order.
func (s *DepsSet) All() iter.Seq2[string, Dependency] {
	return func(yield func(string, Dependency) bool) {
		if s == nil {
			return
		}
		for _, n := range s.names {
			if !yield(n, s.deps[n]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of s.
func (s *DepsSet) Clone() *DepsSet {
	if s == nil {
		return nil
	}
	out := NewDepsSet()
	for n, d := range s.All() {
		out.Set(n, d.Clone())
	}
	return out
}
