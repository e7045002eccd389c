package wrapper

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
	"github.com/matzehuels/cargo-dylib/pkg/manifest"
	"github.com/matzehuels/cargo-dylib/pkg/observability"
)

const (
	// Suffix is appended to a dependency name to form its wrapper package name.
	Suffix = "-dynamic"

	// StampFile records the checksum of a completely written wrapper.
	StampFile = ".cargo-dylib-stamp"

	// DefaultEdition is the Rust edition of generated wrapper crates.
	DefaultEdition = "2021"

	libFile = "lib.rs"
	srcDir  = "src"
)

// DynamicName returns the wrapper package name for a dependency.
func DynamicName(name string) string {
	return name + Suffix
}

// Options configures a Generator.
type Options struct {
	Root        string      // Directory that holds wrapper units
	ManifestDir string      // Directory of the manifest referencing the wrappers (default: Root)
	ProjectRoot string      // Real project directory, required by RebasePaths
	Policy      Policy      // Reuse policy for existing wrappers
	RebasePaths bool        // Rewrite relative dependency paths for the wrapper's location
	Edition     string      // Wrapper crate edition (default: DefaultEdition)
	Logger      *log.Logger // Defaults to log.Default()
}

// Unit describes one wrapper crate on disk.
type Unit struct {
	Name   string              // Dependency key in the real manifest
	ID     string              // Wrapper package name
	Dir    string              // Wrapper directory
	Ref    manifest.Dependency // Entry for the derived manifest
	Status Status
}

// Generator creates wrapper units under a common root.
type Generator struct {
	opts Options
}

// NewGenerator returns a Generator for opts.
func NewGenerator(opts Options) *Generator {
	if opts.ManifestDir == "" {
		opts.ManifestDir = opts.Root
	}
	if opts.Edition == "" {
		opts.Edition = DefaultEdition
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Generator{opts: opts}
}

// Ensure makes sure the wrapper for name exists and returns the dependency
// entry that points at it.
func (g *Generator) Ensure(ctx context.Context, name string, dep manifest.Dependency) (manifest.Dependency, error) {
	u, err := g.EnsureUnit(ctx, name, dep)
	if err != nil {
		return manifest.Dependency{}, err
	}
	return u.Ref, nil
}

// EnsureUnit is Ensure with details about what happened on disk.
func (g *Generator) EnsureUnit(ctx context.Context, name string, dep manifest.Dependency) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := errors.ValidateCratesPackageName(name); err != nil {
		return nil, err
	}

	id := DynamicName(name)
	dir := filepath.Join(g.opts.Root, id)
	ref, err := g.reference(dir, id)
	if err != nil {
		return nil, err
	}
	u := &Unit{Name: name, ID: id, Dir: dir, Ref: ref}

	exists, err := dirExists(dir)
	if err != nil {
		return nil, err
	}
	if exists && g.opts.Policy == PolicyExists {
		u.Status = StatusReused
		g.reused(ctx, u)
		return u, nil
	}

	if g.opts.RebasePaths {
		dep = g.rebase(dep, dir)
	}
	f, err := render(name, g.opts.Edition, dep)
	if err != nil {
		return nil, err
	}

	u.Status = StatusGenerated
	if exists {
		current, err := check(dir, f)
		switch {
		case err != nil:
			g.opts.Logger.Warn("repairing wrapper", "name", name, "err", errors.UserMessage(err))
			observability.Wrapper().OnWrapperCorrupt(ctx, name, err)
			u.Status = StatusRepaired
		case current:
			u.Status = StatusReused
			g.reused(ctx, u)
			return u, nil
		default:
			g.opts.Logger.Debug("dependency changed", "name", name, "dep", dep)
			u.Status = StatusUpdated
		}
	}

	if err := write(dir, f); err != nil {
		return nil, err
	}
	g.opts.Logger.Debug("wrote wrapper", "name", name, "status", u.Status, "dir", dir)
	observability.Wrapper().OnWrapperWritten(ctx, name, u.Status.String(), f.size())
	return u, nil
}

func (g *Generator) reused(ctx context.Context, u *Unit) {
	g.opts.Logger.Debug("reusing wrapper", "name", u.Name, "dir", u.Dir)
	observability.Wrapper().OnWrapperReused(ctx, u.Name)
}

// reference builds the derived manifest entry for a wrapper directory.
func (g *Generator) reference(dir, id string) (manifest.Dependency, error) {
	rel, err := filepath.Rel(g.opts.ManifestDir, dir)
	if err != nil {
		return manifest.Dependency{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "relate %s to %s", dir, g.opts.ManifestDir)
	}
	return manifest.Detailed(manifest.DependencyDetail{
		Path:    filepath.ToSlash(rel),
		Package: id,
	}), nil
}

// rebase rewrites a relative path dependency so that it resolves to the same
// directory from inside the wrapper.
func (g *Generator) rebase(dep manifest.Dependency, dir string) manifest.Dependency {
	if !dep.IsDetailed() || dep.Detail.Path == "" || filepath.IsAbs(dep.Detail.Path) {
		return dep
	}
	target := filepath.Join(g.opts.ProjectRoot, filepath.FromSlash(dep.Detail.Path))
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return dep
	}
	out := dep.Clone()
	out.Detail.Path = filepath.ToSlash(rel)
	return out
}

// check reports whether an existing wrapper matches the files that would be
// written. A WRAPPER_CORRUPT error means the directory is incomplete.
func check(dir string, f files) (bool, error) {
	for _, p := range []string{
		filepath.Join(dir, manifest.FileName),
		filepath.Join(dir, srcDir, libFile),
	} {
		if _, err := os.Stat(p); err != nil {
			return false, errors.Wrap(errors.ErrCodeWrapperCorrupt, err, "wrapper %s is incomplete", dir)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, StampFile))
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeWrapperCorrupt, err, "wrapper %s has no stamp", dir)
	}
	return strings.TrimSpace(string(data)) == f.stamp(), nil
}

// write materializes a wrapper. The stamp is removed first and written last,
// so an interrupted write is detected as corrupt on the next run.
func write(dir string, f files) error {
	stamp := filepath.Join(dir, StampFile)
	if err := os.Remove(stamp); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeIO, err, "remove %s", stamp)
	}

	src := filepath.Join(dir, srcDir)
	if err := os.MkdirAll(src, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", src)
	}

	for _, out := range []struct {
		path string
		data []byte
	}{
		{filepath.Join(dir, manifest.FileName), f.manifest},
		{filepath.Join(src, libFile), f.lib},
		{stamp, []byte(f.stamp() + "\n")},
	} {
		if err := writeIfChanged(out.path, out.data); err != nil {
			return err
		}
	}
	return nil
}

// writeIfChanged skips files whose content already matches, which keeps
// cargo's fingerprints stable when only the stamp was missing.
func writeIfChanged(path string, data []byte) error {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

func dirExists(dir string) (bool, error) {
	fi, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return false, nil
	case err != nil:
		return false, errors.Wrap(errors.ErrCodeIO, err, "stat %s", dir)
	case !fi.IsDir():
		return false, errors.New(errors.ErrCodeIO, "%s exists and is not a directory", dir)
	}
	return true, nil
}
