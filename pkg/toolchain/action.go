// Package toolchain forwards build commands to cargo against a derived
// manifest.
//
// The set of actions is closed: [ActionInit] only prepares the manifest,
// [ActionBuild] and [ActionRun] map to the cargo subcommands of the same
// name, and [ActionExec] passes any other subcommand straight through.
// Trailing arguments are always forwarded verbatim.
package toolchain

import (
	"strings"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
)

// Kind identifies an action variant.
type Kind int

const (
	KindInit  Kind = iota // Prepare only, never spawns
	KindBuild             // cargo build
	KindRun               // cargo run
	KindExec              // Any other cargo subcommand
)

// Action is a command to forward.
type Action struct {
	Kind       Kind
	Subcommand string // Cargo subcommand; empty for KindInit
}

// Predefined actions.
var (
	ActionInit  = Action{Kind: KindInit}
	ActionBuild = Action{Kind: KindBuild, Subcommand: "build"}
	ActionRun   = Action{Kind: KindRun, Subcommand: "run"}
)

// Action names accepted by [ParseAction].
const (
	NameInit  = "init"
	NameBuild = "build"
	NameRun   = "run"
)

// ActionExec returns an action forwarding an arbitrary cargo subcommand.
func ActionExec(sub string) (Action, error) {
	switch {
	case sub == "":
		return Action{}, errors.New(errors.ErrCodeInvalidInput, "subcommand cannot be empty")
	case strings.HasPrefix(sub, "-"):
		return Action{}, errors.New(errors.ErrCodeInvalidInput, "subcommand %q looks like a flag", sub)
	case strings.ContainsAny(sub, " \t\n/\\"):
		return Action{}, errors.New(errors.ErrCodeInvalidInput, "invalid subcommand %q", sub)
	}
	return Action{Kind: KindExec, Subcommand: sub}, nil
}

// ParseAction converts init, build or run into an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case NameInit:
		return ActionInit, nil
	case NameBuild:
		return ActionBuild, nil
	case NameRun:
		return ActionRun, nil
	default:
		return Action{}, errors.New(errors.ErrCodeInvalidInput,
			"unknown action %q (use %s, %s or %s)", s, NameInit, NameBuild, NameRun)
	}
}

// Spawns reports whether the action runs cargo.
func (a Action) Spawns() bool { return a.Kind != KindInit }

func (a Action) String() string {
	if a.Kind == KindInit {
		return NameInit
	}
	return a.Subcommand
}
