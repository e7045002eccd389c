package dylib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
	"github.com/matzehuels/cargo-dylib/pkg/manifest"
	"github.com/matzehuels/cargo-dylib/pkg/wrapper"
)

// Options configures synthesis.
type Options struct {
	Jobs        int            // Parallel wrapper generations (default: GOMAXPROCS)
	Policy      wrapper.Policy // Reuse policy for existing wrappers
	RebasePaths bool           // Rebase relative path dependencies inside wrappers
	Force       bool           // Ignore the staleness check in Prepare
	Logger      *log.Logger    // Defaults to log.Default()
}

func (o Options) withDefaults() Options {
	if o.Jobs <= 0 {
		o.Jobs = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Result is the outcome of a synthesis.
type Result struct {
	Source   *manifest.Manifest // Real manifest as loaded
	Manifest *manifest.Manifest // Derived manifest, not yet written
	Wrappers []*wrapper.Unit    // One per dependency, in declaration order
}

// Count returns how many wrappers ended in status s.
func (r *Result) Count(s wrapper.Status) int {
	n := 0
	for _, u := range r.Wrappers {
		if u.Status == s {
			n++
		}
	}
	return n
}

// Synthesizer derives a manifest for one layout.
type Synthesizer struct {
	layout Layout
	opts   Options
	gen    *wrapper.Generator
}

// NewSynthesizer returns a Synthesizer writing wrappers under layout.DerivedDir.
func NewSynthesizer(layout Layout, opts Options) *Synthesizer {
	opts = opts.withDefaults()
	return &Synthesizer{
		layout: layout,
		opts:   opts,
		gen: wrapper.NewGenerator(wrapper.Options{
			Root:        layout.DerivedDir,
			ManifestDir: layout.DerivedDir,
			ProjectRoot: layout.ProjectRoot,
			Policy:      opts.Policy,
			RebasePaths: opts.RebasePaths,
			Logger:      opts.Logger,
		}),
	}
}

// Synthesize loads the real manifest and derives the dylib manifest from it.
// Wrappers are written as a side effect; the derived manifest is not.
func (s *Synthesizer) Synthesize(ctx context.Context) (*Result, error) {
	m, err := manifest.Load(s.layout.Manifest)
	if err != nil {
		return nil, err
	}
	return s.SynthesizeManifest(ctx, m)
}

// SynthesizeManifest derives the dylib manifest from an already loaded one.
// m is not modified.
func (s *Synthesizer) SynthesizeManifest(ctx context.Context, m *manifest.Manifest) (*Result, error) {
	derived := m.Clone()

	// Targets first so a project cargo cannot build fails before any writes.
	if err := s.redirectTargets(derived); err != nil {
		return nil, err
	}

	units, err := s.generate(ctx, m.Dependencies)
	if err != nil {
		return nil, err
	}

	deps := manifest.NewDepsSet()
	for _, u := range units {
		deps.Set(u.Name, u.Ref)
	}
	derived.Dependencies = deps

	s.opts.Logger.Debug("synthesized manifest",
		"package", derived.Package.Name,
		"dependencies", deps.Len(),
		"bin", derived.FirstBin().Path)

	return &Result{Source: m, Manifest: derived, Wrappers: units}, nil
}

// =============================================================================
// Wrapper Generation
// =============================================================================

// generate runs one generator call per dependency with at most Jobs in
// flight. The first failure cancels the rest and is returned.
func (s *Synthesizer) generate(ctx context.Context, deps *manifest.DepsSet) ([]*wrapper.Unit, error) {
	names := deps.Names()
	units := make([]*wrapper.Unit, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Jobs)

	for i, name := range names {
		dep, _ := deps.Get(name)
		g.Go(func() error {
			u, err := s.gen.EnsureUnit(gctx, name, dep)
			if err != nil {
				return fmt.Errorf("dependency %s: %w", name, err)
			}
			units[i] = u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// =============================================================================
// Target Redirection
// =============================================================================

// redirectTargets rewrites target paths so they resolve from the derived
// manifest's directory. The first binary is required. Targets cargo would
// discover next to the real manifest are declared explicitly.
func (s *Synthesizer) redirectTargets(m *manifest.Manifest) error {
	if len(m.Bin) == 0 {
		if !s.exists(manifest.DefaultBinPath) {
			return errors.New(errors.ErrCodeNoBinaryTarget,
				"%s declares no [[bin]] and %s does not exist", s.layout.Manifest, manifest.DefaultBinPath)
		}
		m.Bin = []manifest.Target{{Name: m.Package.Name}}
	}

	for i := range m.Bin {
		bin := &m.Bin[i]
		path := bin.Path
		if path == "" {
			path = s.inferBinPath(i, bin.Name, m.Package.Name)
		}
		if path == "" {
			s.opts.Logger.Warn("cannot locate binary", "name", bin.Name)
			continue
		}
		rebased, err := s.rebase(path)
		if err != nil {
			return err
		}
		bin.Path = rebased
	}

	if m.Lib != nil && m.Lib.Path != "" {
		rebased, err := s.rebase(m.Lib.Path)
		if err != nil {
			return err
		}
		m.Lib.Path = rebased
	}

	// build = false disables the script and is kept as is.
	build, declared := m.Package.Extra["build"]
	if !declared && s.exists(manifest.DefaultBuildScript) {
		build = manifest.DefaultBuildScript
	}
	if path, ok := build.(string); ok {
		rebased, err := s.rebase(path)
		if err != nil {
			return err
		}
		if m.Package.Extra == nil {
			m.Package.Extra = make(map[string]any)
		}
		m.Package.Extra["build"] = rebased
	}
	return nil
}

// inferBinPath applies cargo's conventions for a [[bin]] without a path.
func (s *Synthesizer) inferBinPath(i int, name, pkg string) string {
	if i == 0 && (name == "" || name == pkg) {
		return manifest.DefaultBinPath
	}
	for _, p := range []string{
		"src/bin/" + name + ".rs",
		"src/bin/" + name + "/main.rs",
	} {
		if s.exists(p) {
			return p
		}
	}
	if i == 0 {
		return manifest.DefaultBinPath
	}
	return ""
}

// rebase converts a path relative to the project root into a path relative
// to the derived manifest's directory.
func (s *Synthesizer) rebase(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	target := filepath.Join(s.layout.ProjectRoot, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.layout.DerivedDir, target)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "relate %s to %s", target, s.layout.DerivedDir)
	}
	return filepath.ToSlash(rel), nil
}

func (s *Synthesizer) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.layout.ProjectRoot, filepath.FromSlash(rel)))
	return err == nil
}
