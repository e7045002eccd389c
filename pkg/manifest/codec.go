package manifest

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
)

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read manifest %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read manifest %s", path)
	}
	m, err := parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse manifest %s", path)
	}
	return m, nil
}

// Parse parses manifest source.
func Parse(data []byte) (*Manifest, error) {
	m, err := parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse manifest")
	}
	return m, nil
}

func parse(data []byte) (*Manifest, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Dependencies: NewDepsSet()}

	pkg, ok := raw["package"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing [package] table (virtual workspace manifests are not supported)")
	}
	if m.Package, err = parsePackage(pkg); err != nil {
		return nil, err
	}

	if v, ok := raw["dependencies"]; ok {
		table, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("[dependencies]: expected table, got %T", v)
		}
		for _, name := range declarationOrder(md.Keys(), "dependencies", table) {
			dep, err := parseDependency(name, table[name])
			if err != nil {
				return nil, err
			}
			m.Dependencies.Set(name, dep)
		}
	}

	if v, ok := raw["lib"]; ok {
		table, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("[lib]: expected table, got %T", v)
		}
		lib, err := parseTarget(table)
		if err != nil {
			return nil, fmt.Errorf("[lib]: %w", err)
		}
		m.Lib = &lib
	}

	if v, ok := raw["bin"]; ok {
		tables, ok := tableArray(v)
		if !ok {
			return nil, fmt.Errorf("[[bin]]: expected array of tables, got %T", v)
		}
		for i, table := range tables {
			bin, err := parseTarget(table)
			if err != nil {
				return nil, fmt.Errorf("[[bin]] #%d: %w", i+1, err)
			}
			m.Bin = append(m.Bin, bin)
		}
	}

	for k, v := range raw {
		switch k {
		case "package", "dependencies", "lib", "bin":
			continue
		}
		if m.Rest == nil {
			m.Rest = make(map[string]any)
		}
		m.Rest[k] = cloneValue(v)
	}

	return m, nil
}

func parsePackage(t map[string]any) (Package, error) {
	var p Package
	for k, v := range t {
		s, isString := v.(string)
		switch {
		case k == "name" && isString:
			p.Name = s
		case k == "version" && isString:
			p.Version = s
		case k == "edition" && isString:
			p.Edition = s
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]any)
			}
			p.Extra[k] = cloneValue(v)
		}
	}
	if p.Name == "" {
		return p, fmt.Errorf("[package]: missing name")
	}
	return p, nil
}

func parseTarget(t map[string]any) (Target, error) {
	var target Target
	for k, v := range t {
		switch k {
		case "name", "path":
			s, ok := v.(string)
			if !ok {
				return target, fmt.Errorf("%s: expected string, got %T", k, v)
			}
			if k == "name" {
				target.Name = s
			} else {
				target.Path = s
			}
		default:
			if target.Extra == nil {
				target.Extra = make(map[string]any)
			}
			target.Extra[k] = cloneValue(v)
		}
	}
	return target, nil
}

// declarationOrder lists the keys of the given top-level table in the order
// they appear in the source. Keys the metadata does not account for are
// appended in sorted order.
func declarationOrder(keys []toml.Key, table string, t map[string]any) []string {
	seen := make(map[string]bool, len(t))
	out := make([]string, 0, len(t))
	for _, k := range keys {
		if len(k) < 2 || k[0] != table || seen[k[1]] {
			continue
		}
		if _, ok := t[k[1]]; !ok {
			continue
		}
		seen[k[1]] = true
		out = append(out, k[1])
	}
	var rest []string
	for name := range t {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// manifestHead fixes the order of the rewritten sections in encoded output.
type manifestHead struct {
	Package      map[string]any   `toml:"package"`
	Lib          map[string]any   `toml:"lib,omitempty"`
	Bin          []map[string]any `toml:"bin,omitempty"`
}

// Encode writes m as TOML.
//
// Top-level scalar keys from Rest come first, then [package], [lib], [[bin]]
// and [dependencies], then the remaining tables in sorted order. Dependencies
// keep their declaration order.
func (m *Manifest) Encode(w io.Writer) error {
	scalars, tables := splitRest(m.Rest)

	head := manifestHead{Package: m.Package.tree()}
	if m.Lib != nil {
		head.Lib = m.Lib.tree()
	}
	for _, b := range m.Bin {
		head.Bin = append(head.Bin, b.tree())
	}

	var sections []any
	if len(scalars) > 0 {
		sections = append(sections, scalars)
	}
	sections = append(sections, head)
	if m.Dependencies.Len() > 0 {
		sections = append(sections, m.Dependencies)
	}
	if len(tables) > 0 {
		sections = append(sections, tables)
	}

	for i, s := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return errors.Wrap(errors.ErrCodeSerialize, err, "encode manifest")
			}
		}
		var err error
		if deps, ok := s.(*DepsSet); ok {
			err = encodeDependencies(w, deps)
		} else {
			err = newEncoder(w).Encode(s)
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeSerialize, err, "encode manifest")
		}
	}
	return nil
}

// Bytes returns the encoded form of m.
func (m *Manifest) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeDependencies writes deps as a standalone [dependencies] table.
func EncodeDependencies(w io.Writer, deps *DepsSet) error {
	if err := encodeDependencies(w, deps); err != nil {
		return errors.Wrap(errors.ErrCodeSerialize, err, "encode dependencies")
	}
	return nil
}

// encodeDependencies writes one "name = value" line per dependency in
// declaration order. Table-form entries are written as inline tables.
func encodeDependencies(w io.Writer, deps *DepsSet) error {
	var buf bytes.Buffer
	buf.WriteString("[dependencies]\n")
	for name, dep := range deps.All() {
		key, err := encodeKey(name)
		if err != nil {
			return err
		}
		val, err := inlineValue(dep.tree())
		if err != nil {
			return fmt.Errorf("dependency %q: %w", name, err)
		}
		fmt.Fprintf(&buf, "%s = %s\n", key, val)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// encodeKey returns name as a TOML key, quoted when it is not a bare key.
func encodeKey(name string) (string, error) {
	var buf bytes.Buffer
	if err := newEncoder(&buf).Encode(map[string]bool{name: true}); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), " = true\n"), nil
}

// inlineValue renders v on a single line. Tables become inline tables with
// sorted keys; scalars are rendered by the TOML encoder.
func inlineValue(v any) (string, error) {
	switch v := v.(type) {
	case map[string]any:
		if len(v) == 0 {
			return "{}", nil
		}
		parts := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			key, err := encodeKey(k)
			if err != nil {
				return "", err
			}
			val, err := inlineValue(v[k])
			if err != nil {
				return "", err
			}
			parts = append(parts, key+" = "+val)
		}
		return "{ " + strings.Join(parts, ", ") + " }", nil
	case []string:
		return inlineArray(len(v), func(i int) any { return v[i] })
	case []any:
		return inlineArray(len(v), func(i int) any { return v[i] })
	case []map[string]any:
		return inlineArray(len(v), func(i int) any { return v[i] })
	}

	var buf bytes.Buffer
	if err := newEncoder(&buf).Encode(map[string]any{"v": v}); err != nil {
		return "", err
	}
	out, ok := strings.CutPrefix(buf.String(), "v = ")
	if !ok {
		return "", fmt.Errorf("cannot write %T inline", v)
	}
	return strings.TrimSuffix(out, "\n"), nil
}

func inlineArray(n int, elem func(int) any) (string, error) {
	parts := make([]string, n)
	for i := range parts {
		s, err := inlineValue(elem(i))
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func newEncoder(w io.Writer) *toml.Encoder {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	return enc
}

// Locate finds the manifest governing dir by walking up the directory tree,
// the same way cargo resolves the current package.
func Locate(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "resolve %s", dir)
	}
	for cur := abs; ; {
		path := filepath.Join(cur, FileName)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", errors.New(errors.ErrCodeManifestNotFound,
				"could not find %s in %s or any parent directory", FileName, abs)
		}
		cur = parent
	}
}
