package manifest

// FileName is the conventional manifest file name.
const FileName = "Cargo.toml"

// DefaultBinPath is the entry point cargo assumes when [[bin]] omits path.
const DefaultBinPath = "src/main.rs"

// DefaultBuildScript is the build script cargo picks up when [package] has
// no build key.
const DefaultBuildScript = "build.rs"

// Manifest is a parsed Cargo.toml.
type Manifest struct {
	Package      Package
	Dependencies *DepsSet
	Lib          *Target        // [lib], nil when not declared
	Bin          []Target       // [[bin]] in declaration order
	Rest         map[string]any // All other top-level keys, verbatim
}

// Package is the [package] table.
type Package struct {
	Name    string
	Version string
	Edition string
	Extra   map[string]any // Remaining keys, including workspace-inherited fields
}

// Target is a [lib] or [[bin]] entry.
type Target struct {
	Name  string
	Path  string
	Extra map[string]any
}

// Clone returns a deep copy of m. Mutating the copy never affects m.
func (m *Manifest) Clone() *Manifest {
	out := &Manifest{
		Package: Package{
			Name:    m.Package.Name,
			Version: m.Package.Version,
			Edition: m.Package.Edition,
			Extra:   cloneTable(m.Package.Extra),
		},
		Dependencies: m.Dependencies.Clone(),
		Rest:         cloneTable(m.Rest),
	}
	if m.Lib != nil {
		lib := m.Lib.clone()
		out.Lib = &lib
	}
	if m.Bin != nil {
		out.Bin = make([]Target, len(m.Bin))
		for i, b := range m.Bin {
			out.Bin[i] = b.clone()
		}
	}
	return out
}

// FirstBin returns the first [[bin]] target, or nil.
func (m *Manifest) FirstBin() *Target {
	if len(m.Bin) == 0 {
		return nil
	}
	return &m.Bin[0]
}

func (t Target) clone() Target {
	return Target{Name: t.Name, Path: t.Path, Extra: cloneTable(t.Extra)}
}

func (t Target) tree() map[string]any {
	out := cloneTable(t.Extra)
	if out == nil {
		out = make(map[string]any)
	}
	setString(out, "name", t.Name)
	setString(out, "path", t.Path)
	return out
}

func (p Package) tree() map[string]any {
	out := cloneTable(p.Extra)
	if out == nil {
		out = make(map[string]any)
	}
	setString(out, "name", p.Name)
	setString(out, "version", p.Version)
	setString(out, "edition", p.Edition)
	return out
}

// cloneTable deep-copies a decoded TOML table.
func cloneTable(t map[string]any) map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep-copies a decoded TOML value. Scalars (strings, numbers,
// booleans and date-times) are immutable and returned as is.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneTable(v)
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, t := range v {
			out[i] = cloneTable(t)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// isTable reports whether v encodes as a TOML table or array of tables.
func isTable(v any) bool {
	if _, ok := v.(map[string]any); ok {
		return true
	}
	_, ok := tableArray(v)
	return ok
}

// tableArray returns v as a slice of tables. The decoder yields
// []map[string]any for [[x]] headers and []any for inline arrays of tables.
func tableArray(v any) ([]map[string]any, bool) {
	switch v := v.(type) {
	case []map[string]any:
		return v, true
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		out := make([]map[string]any, len(v))
		for i, e := range v {
			t, ok := e.(map[string]any)
			if !ok {
				return nil, false
			}
			out[i] = t
		}
		return out, true
	}
	return nil, false
}

// splitRest separates top-level scalar keys from tables so that scalars can be
// written before any table header.
func splitRest(rest map[string]any) (scalars, tables map[string]any) {
	scalars = make(map[string]any)
	tables = make(map[string]any)
	for k, v := range rest {
		if isTable(v) {
			tables[k] = v
		} else {
			scalars[k] = v
		}
	}
	return scalars, tables
}
