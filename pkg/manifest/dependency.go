package manifest

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Dependency is a single entry of a dependency table.
//
// Exactly one form is set: Version for the bare form (name = "1.0") or
// Detail for the table form. The zero value is an empty bare requirement.
type Dependency struct {
	Version string            // Bare version requirement
	Detail  *DependencyDetail // Table form, nil for the bare form
}

// DependencyDetail is the table form of a dependency.
type DependencyDetail struct {
	Version         string
	Path            string
	Package         string // Registry package name when the key is a rename
	Registry        string
	Git             string
	Branch          string
	Tag             string
	Rev             string
	Features        []string
	DefaultFeatures *bool
	Optional        bool
	Workspace       bool
	Extra           map[string]any // Keys not modelled above, kept verbatim
}

// Simple returns a bare version dependency.
func Simple(version string) Dependency {
	return Dependency{Version: version}
}

// Detailed returns a table-form dependency.
func Detailed(d DependencyDetail) Dependency {
	return Dependency{Detail: &d}
}

// IsDetailed reports whether d uses the table form.
func (d Dependency) IsDetailed() bool { return d.Detail != nil }

// Clone returns a deep copy of d.
func (d Dependency) Clone() Dependency {
	if d.Detail == nil {
		return d
	}
	det := *d.Detail
	det.Features = slices.Clone(d.Detail.Features)
	if d.Detail.DefaultFeatures != nil {
		v := *d.Detail.DefaultFeatures
		det.DefaultFeatures = &v
	}
	det.Extra = cloneTable(d.Detail.Extra)
	return Dependency{Detail: &det}
}

// String renders d the way it would appear after "name = " in a manifest.
func (d Dependency) String() string {
	if d.Detail == nil {
		return strconv.Quote(d.Version)
	}
	t := d.tree().(map[string]any)
	parts := make([]string, 0, len(t))
	for _, k := range slices.Sorted(maps.Keys(t)) {
		parts = append(parts, k+" = "+fmtValue(t[k]))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func fmtValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case []string:
		q := make([]string, len(v))
		for i, s := range v {
			q[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(q, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

// tree converts d into the value the TOML encoder writes.
func (d Dependency) tree() any {
	if d.Detail == nil {
		return d.Version
	}
	det := d.Detail
	t := cloneTable(det.Extra)
	if t == nil {
		t = make(map[string]any)
	}
	setString(t, "version", det.Version)
	setString(t, "path", det.Path)
	setString(t, "package", det.Package)
	setString(t, "registry", det.Registry)
	setString(t, "git", det.Git)
	setString(t, "branch", det.Branch)
	setString(t, "tag", det.Tag)
	setString(t, "rev", det.Rev)
	if len(det.Features) > 0 {
		t["features"] = slices.Clone(det.Features)
	}
	if det.DefaultFeatures != nil {
		t["default-features"] = *det.DefaultFeatures
	}
	if det.Optional {
		t["optional"] = true
	}
	if det.Workspace {
		t["workspace"] = true
	}
	return t
}

func setString(t map[string]any, key, v string) {
	if v != "" {
		t[key] = v
	}
}

// parseDependency converts a decoded TOML value into a Dependency.
func parseDependency(name string, v any) (Dependency, error) {
	switch v := v.(type) {
	case string:
		return Simple(v), nil
	case map[string]any:
		det, err := parseDetail(v)
		if err != nil {
			return Dependency{}, fmt.Errorf("dependency %q: %w", name, err)
		}
		return Dependency{Detail: det}, nil
	default:
		return Dependency{}, fmt.Errorf("dependency %q: expected string or table, got %T", name, v)
	}
}

func parseDetail(t map[string]any) (*DependencyDetail, error) {
	det := &DependencyDetail{}
	strs := map[string]*string{
		"version":  &det.Version,
		"path":     &det.Path,
		"package":  &det.Package,
		"registry": &det.Registry,
		"git":      &det.Git,
		"branch":   &det.Branch,
		"tag":      &det.Tag,
		"rev":      &det.Rev,
	}

	for k, v := range t {
		if dst, ok := strs[k]; ok {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected string, got %T", k, v)
			}
			*dst = s
			continue
		}

		switch k {
		case "features":
			arr, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("features: expected array, got %T", v)
			}
			for _, f := range arr {
				s, ok := f.(string)
				if !ok {
					return nil, fmt.Errorf("features: expected string, got %T", f)
				}
				det.Features = append(det.Features, s)
			}
		case "default-features", "default_features":
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%s: expected bool, got %T", k, v)
			}
			det.DefaultFeatures = &b
		case "optional":
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("optional: expected bool, got %T", v)
			}
			det.Optional = b
		case "workspace":
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("workspace: expected bool, got %T", v)
			}
			det.Workspace = b
		default:
			if det.Extra == nil {
				det.Extra = make(map[string]any)
			}
			det.Extra[k] = cloneValue(v)
		}
	}
	return det, nil
}
