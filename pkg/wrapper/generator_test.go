package wrapper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
	"github.com/matzehuels/cargo-dylib/pkg/manifest"
)

func newTestGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	if opts.Root == "" {
		opts.Root = t.TempDir()
	}
	opts.Logger = log.New(&strings.Builder{})
	return NewGenerator(opts)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(data)
}

func TestDynamicName(t *testing.T) {
	if got := DynamicName("serde"); got != "serde-dynamic" {
		t.Errorf("DynamicName() = %q, want %q", got, "serde-dynamic")
	}
}

func TestEnsureGeneratesUnit(t *testing.T) {
	g := newTestGenerator(t, Options{})
	ctx := context.Background()

	u, err := g.EnsureUnit(ctx, "foo", manifest.Simple("1.0"))
	if err != nil {
		t.Fatalf("EnsureUnit() error: %v", err)
	}
	if u.Status != StatusGenerated {
		t.Errorf("Status = %v, want %v", u.Status, StatusGenerated)
	}
	if u.ID != "foo-dynamic" {
		t.Errorf("ID = %q, want foo-dynamic", u.ID)
	}

	lib := readFile(t, filepath.Join(u.Dir, "src", "lib.rs"))
	if lib != "pub use foo::*;\n" {
		t.Errorf("lib.rs = %q, want %q", lib, "pub use foo::*;\n")
	}

	m, err := manifest.Load(filepath.Join(u.Dir, manifest.FileName))
	if err != nil {
		t.Fatalf("wrapper manifest does not parse: %v", err)
	}
	if m.Package.Name != "foo-dynamic" {
		t.Errorf("package.name = %q, want foo-dynamic", m.Package.Name)
	}
	if m.Dependencies.Len() != 1 {
		t.Fatalf("dependencies = %v, want exactly foo", m.Dependencies.Names())
	}
	dep, ok := m.Dependencies.Get("foo")
	if !ok || dep.String() != `"1.0"` {
		t.Errorf("dependencies.foo = %s, want \"1.0\"", dep)
	}
	if m.Lib == nil || m.Lib.Extra["crate-type"] == nil {
		t.Fatalf("wrapper manifest has no [lib] crate-type")
	}
	types, _ := m.Lib.Extra["crate-type"].([]any)
	if len(types) != 1 || types[0] != "dylib" {
		t.Errorf("crate-type = %v, want [dylib]", m.Lib.Extra["crate-type"])
	}

	if stamp := readFile(t, filepath.Join(u.Dir, StampFile)); strings.TrimSpace(stamp) == "" {
		t.Error("stamp file is empty")
	}
}

func TestEnsureReference(t *testing.T) {
	out := t.TempDir()
	g := newTestGenerator(t, Options{
		Root:        filepath.Join(out, "deps"),
		ManifestDir: out,
	})

	ref, err := g.Ensure(context.Background(), "bar", manifest.Simple("0.3"))
	if err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}
	if !ref.IsDetailed() {
		t.Fatalf("reference is not a table: %s", ref)
	}
	if ref.Detail.Path != "deps/bar-dynamic" {
		t.Errorf("path = %q, want deps/bar-dynamic", ref.Detail.Path)
	}
	if ref.Detail.Package != "bar-dynamic" {
		t.Errorf("package = %q, want bar-dynamic", ref.Detail.Package)
	}
	if ref.Detail.Version != "" || len(ref.Detail.Features) != 0 {
		t.Errorf("reference carries original spec: %s", ref)
	}
}

func TestEnsureHyphenatedName(t *testing.T) {
	g := newTestGenerator(t, Options{})

	u, err := g.EnsureUnit(context.Background(), "serde-json", manifest.Simple("1"))
	if err != nil {
		t.Fatalf("EnsureUnit() error: %v", err)
	}
	if u.ID != "serde-json-dynamic" {
		t.Errorf("ID = %q, want serde-json-dynamic", u.ID)
	}
	if lib := readFile(t, filepath.Join(u.Dir, "src", "lib.rs")); lib != "pub use serde_json::*;\n" {
		t.Errorf("lib.rs = %q", lib)
	}
}

func TestEnsureIdentifierNames(t *testing.T) {
	g := newTestGenerator(t, Options{})
	dep := manifest.Detailed(manifest.DependencyDetail{Path: "../p"})

	for _, name := range []string{"_priv", "größe"} {
		u, err := g.EnsureUnit(context.Background(), name, dep)
		if err != nil {
			t.Fatalf("EnsureUnit(%q) error: %v", name, err)
		}
		if lib := readFile(t, filepath.Join(u.Dir, "src", "lib.rs")); lib != "pub use "+name+"::*;\n" {
			t.Errorf("lib.rs = %q", lib)
		}
		m, err := manifest.Load(filepath.Join(u.Dir, manifest.FileName))
		if err != nil {
			t.Fatalf("wrapper manifest for %q does not parse: %v", name, err)
		}
		if _, ok := m.Dependencies.Get(name); !ok {
			t.Errorf("wrapper does not depend on %q: %v", name, m.Dependencies.Names())
		}
	}
}

func TestEnsureDetailedDependency(t *testing.T) {
	g := newTestGenerator(t, Options{})
	dep := manifest.Detailed(manifest.DependencyDetail{
		Version:  "1",
		Features: []string{"full"},
	})

	u, err := g.EnsureUnit(context.Background(), "tokio", dep)
	if err != nil {
		t.Fatalf("EnsureUnit() error: %v", err)
	}

	m, err := manifest.Load(filepath.Join(u.Dir, manifest.FileName))
	if err != nil {
		t.Fatalf("wrapper manifest does not parse: %v", err)
	}
	got, ok := m.Dependencies.Get("tokio")
	if !ok {
		t.Fatal("wrapper does not depend on tokio")
	}
	if got.String() != dep.String() {
		t.Errorf("dependencies.tokio = %s, want %s", got, dep)
	}
}

func TestEnsureInvalidName(t *testing.T) {
	g := newTestGenerator(t, Options{})
	for _, name := range []string{"", "../evil", "a/b", "1abc", "with space"} {
		t.Run(name, func(t *testing.T) {
			_, err := g.EnsureUnit(context.Background(), name, manifest.Simple("1"))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidPackage) {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidPackage)
			}
		})
	}
}

func TestEnsureCancelled(t *testing.T) {
	g := newTestGenerator(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.EnsureUnit(ctx, "foo", manifest.Simple("1")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if _, err := os.Stat(filepath.Join(g.opts.Root, "foo-dynamic")); !os.IsNotExist(err) {
		t.Errorf("wrapper written despite cancellation")
	}
}

func TestEnsureIdempotent(t *testing.T) {
	for _, policy := range []Policy{PolicyChecksum, PolicyExists} {
		t.Run(policy.String(), func(t *testing.T) {
			g := newTestGenerator(t, Options{Policy: policy})
			ctx := context.Background()

			first, err := g.EnsureUnit(ctx, "foo", manifest.Simple("1.0"))
			if err != nil {
				t.Fatalf("EnsureUnit() error: %v", err)
			}

			// Backdate so any rewrite would be visible.
			old := time.Now().Add(-time.Hour).Truncate(time.Second)
			files := []string{
				filepath.Join(first.Dir, manifest.FileName),
				filepath.Join(first.Dir, "src", "lib.rs"),
				filepath.Join(first.Dir, StampFile),
			}
			for _, f := range files {
				if err := os.Chtimes(f, old, old); err != nil {
					t.Fatal(err)
				}
			}

			second, err := g.EnsureUnit(ctx, "foo", manifest.Simple("1.0"))
			if err != nil {
				t.Fatalf("EnsureUnit() error: %v", err)
			}
			if second.Status != StatusReused {
				t.Errorf("Status = %v, want %v", second.Status, StatusReused)
			}
			if second.Ref.String() != first.Ref.String() {
				t.Errorf("Ref = %s, want %s", second.Ref, first.Ref)
			}
			for _, f := range files {
				fi, err := os.Stat(f)
				if err != nil {
					t.Fatal(err)
				}
				if !fi.ModTime().Equal(old) {
					t.Errorf("%s was rewritten", filepath.Base(f))
				}
			}
		})
	}
}

func TestEnsureChangedSpec(t *testing.T) {
	tests := []struct {
		policy  Policy
		status  Status
		version string
	}{
		{PolicyChecksum, StatusUpdated, `"2.0"`},
		{PolicyExists, StatusReused, `"1.0"`},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			g := newTestGenerator(t, Options{Policy: tt.policy})
			ctx := context.Background()

			if _, err := g.EnsureUnit(ctx, "foo", manifest.Simple("1.0")); err != nil {
				t.Fatal(err)
			}
			u, err := g.EnsureUnit(ctx, "foo", manifest.Simple("2.0"))
			if err != nil {
				t.Fatal(err)
			}
			if u.Status != tt.status {
				t.Errorf("Status = %v, want %v", u.Status, tt.status)
			}

			m, err := manifest.Load(filepath.Join(u.Dir, manifest.FileName))
			if err != nil {
				t.Fatal(err)
			}
			dep, _ := m.Dependencies.Get("foo")
			if dep.String() != tt.version {
				t.Errorf("dependencies.foo = %s, want %s", dep, tt.version)
			}
		})
	}
}

func TestEnsureRepairsPartialUnit(t *testing.T) {
	tests := []struct {
		name   string
		damage func(dir string) error
	}{
		{"missing stamp", func(dir string) error {
			return os.Remove(filepath.Join(dir, StampFile))
		}},
		{"missing lib", func(dir string) error {
			return os.Remove(filepath.Join(dir, "src", "lib.rs"))
		}},
		{"empty directory", func(dir string) error {
			if err := os.RemoveAll(dir); err != nil {
				return err
			}
			return os.MkdirAll(dir, 0755)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, Options{})
			ctx := context.Background()

			u, err := g.EnsureUnit(ctx, "foo", manifest.Simple("1.0"))
			if err != nil {
				t.Fatal(err)
			}
			want := readFile(t, filepath.Join(u.Dir, StampFile))

			if err := tt.damage(u.Dir); err != nil {
				t.Fatal(err)
			}

			u, err = g.EnsureUnit(ctx, "foo", manifest.Simple("1.0"))
			if err != nil {
				t.Fatal(err)
			}
			if u.Status != StatusRepaired {
				t.Errorf("Status = %v, want %v", u.Status, StatusRepaired)
			}
			if got := readFile(t, filepath.Join(u.Dir, StampFile)); got != want {
				t.Errorf("stamp = %q, want %q", got, want)
			}
			if lib := readFile(t, filepath.Join(u.Dir, "src", "lib.rs")); lib != "pub use foo::*;\n" {
				t.Errorf("lib.rs = %q", lib)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	v1, err := render("foo", DefaultEdition, manifest.Simple("1.0"))
	if err != nil {
		t.Fatal(err)
	}
	v2, err := render("foo", DefaultEdition, manifest.Simple("2.0"))
	if err != nil {
		t.Fatal(err)
	}
	if err := write(dir, v1); err != nil {
		t.Fatal(err)
	}

	if current, err := check(dir, v1); err != nil || !current {
		t.Errorf("check(same) = %v, %v, want true, nil", current, err)
	}
	if current, err := check(dir, v2); err != nil || current {
		t.Errorf("check(changed) = %v, %v, want false, nil", current, err)
	}

	if err := os.Remove(filepath.Join(dir, StampFile)); err != nil {
		t.Fatal(err)
	}
	if _, err := check(dir, v1); !errors.Is(err, errors.ErrCodeWrapperCorrupt) {
		t.Errorf("check(no stamp) error = %v, want %s", err, errors.ErrCodeWrapperCorrupt)
	}
}

func TestEnsureRootIsFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "foo-dynamic"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	g := newTestGenerator(t, Options{Root: root})

	_, err := g.EnsureUnit(context.Background(), "foo", manifest.Simple("1"))
	if !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeIO)
	}
}

func TestEnsureRebasePaths(t *testing.T) {
	project := t.TempDir()
	out := filepath.Join(project, "target", "cargo-dylib")
	dep := manifest.Detailed(manifest.DependencyDetail{Path: "../shared"})

	tests := []struct {
		rebase bool
		want   string
	}{
		{false, "../shared"},
		{true, "../../../../../shared"},
	}

	for _, tt := range tests {
		g := newTestGenerator(t, Options{
			Root:        filepath.Join(out, "deps"),
			ManifestDir: out,
			ProjectRoot: project,
			RebasePaths: tt.rebase,
		})
		u, err := g.EnsureUnit(context.Background(), "shared", dep)
		if err != nil {
			t.Fatal(err)
		}
		m, err := manifest.Load(filepath.Join(u.Dir, manifest.FileName))
		if err != nil {
			t.Fatal(err)
		}
		got, _ := m.Dependencies.Get("shared")
		if !got.IsDetailed() || got.Detail.Path != tt.want {
			t.Errorf("rebase=%v: path = %s, want %s", tt.rebase, got, tt.want)
		}
		if err := os.RemoveAll(u.Dir); err != nil {
			t.Fatal(err)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyChecksum, false},
		{"checksum", PolicyChecksum, false},
		{"exists", PolicyExists, false},
		{"mtime", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStatus(t *testing.T) {
	if StatusReused.Wrote() {
		t.Error("StatusReused.Wrote() = true")
	}
	for _, s := range []Status{StatusGenerated, StatusUpdated, StatusRepaired} {
		if !s.Wrote() {
			t.Errorf("%v.Wrote() = false", s)
		}
	}
}

func TestHash(t *testing.T) {
	a := Hash([]byte("a"), []byte("b"))
	if len(a) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(a))
	}
	if a != Hash([]byte("ab")) {
		t.Error("Hash is not over the concatenation")
	}
	if a == Hash([]byte("ba")) {
		t.Error("Hash ignores order")
	}
}

func TestRenderSnapshot(t *testing.T) {
	f, err := render("serde-json", DefaultEdition, manifest.Simple("1.0"))
	if err != nil {
		t.Fatal(err)
	}
	snaps.MatchSnapshot(t, string(f.manifest))
	snaps.MatchSnapshot(t, string(f.lib))
}
