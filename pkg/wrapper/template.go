package wrapper

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
	"github.com/matzehuels/cargo-dylib/pkg/manifest"
)

const manifestTemplate = `# Generated by cargo-dylib. Re-exports {{ .Name }} as a dynamic library.
[package]
name = {{ .ID | quote }}
version = "0.1.0"
edition = {{ .Edition | quote }}

{{ .Dependencies }}
[lib]
crate-type = ["dylib"]
`

// Cargo exposes a crate whose key contains hyphens under an underscored name.
const libTemplate = `pub use {{ .Name | replace "-" "_" }}::*;
`

var (
	manifestTmpl = template.Must(template.New(manifest.FileName).Funcs(sprig.TxtFuncMap()).Parse(manifestTemplate))
	libTmpl      = template.Must(template.New("lib.rs").Funcs(sprig.TxtFuncMap()).Parse(libTemplate))
)

// templateData is the input to both wrapper templates.
type templateData struct {
	Name         string // Dependency key in the real manifest
	ID           string // Wrapper package name
	Edition      string
	Dependencies string // Encoded [dependencies] table
}

// files holds the rendered contents of a wrapper unit.
type files struct {
	manifest []byte
	lib      []byte
}

// stamp is the checksum recorded once both files are on disk.
func (f files) stamp() string {
	return Hash(f.manifest, f.lib)
}

func (f files) size() int {
	return len(f.manifest) + len(f.lib)
}

// render produces the wrapper manifest and source for one dependency.
func render(name, edition string, dep manifest.Dependency) (files, error) {
	deps := manifest.NewDepsSet()
	deps.Set(name, dep)

	var table bytes.Buffer
	if err := manifest.EncodeDependencies(&table, deps); err != nil {
		return files{}, err
	}

	data := templateData{
		Name:         name,
		ID:           DynamicName(name),
		Edition:      edition,
		Dependencies: table.String(),
	}

	var m, l bytes.Buffer
	if err := manifestTmpl.Execute(&m, data); err != nil {
		return files{}, errors.Wrap(errors.ErrCodeSerialize, err, "render wrapper manifest for %s", name)
	}
	if err := libTmpl.Execute(&l, data); err != nil {
		return files{}, errors.Wrap(errors.ErrCodeSerialize, err, "render wrapper source for %s", name)
	}
	return files{manifest: m.Bytes(), lib: l.Bytes()}, nil
}
