package wrapper

import (
	"github.com/matzehuels/cargo-dylib/pkg/errors"
)

// Policy selects how an existing wrapper directory is validated.
type Policy int

const (
	PolicyChecksum Policy = iota // Reuse only when the stamp matches
	PolicyExists                 // Reuse whenever the directory exists
)

// Policy names accepted by [ParsePolicy].
const (
	PolicyNameChecksum = "checksum"
	PolicyNameExists   = "exists"
)

// ParsePolicy converts a policy name into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case PolicyNameChecksum, "":
		return PolicyChecksum, nil
	case PolicyNameExists:
		return PolicyExists, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput,
			"unknown cache key %q (use %s or %s)", s, PolicyNameChecksum, PolicyNameExists)
	}
}

func (p Policy) String() string {
	if p == PolicyExists {
		return PolicyNameExists
	}
	return PolicyNameChecksum
}

// Status describes what EnsureUnit did for a wrapper.
type Status int

const (
	StatusGenerated Status = iota // Directory did not exist
	StatusReused                  // Nothing written
	StatusUpdated                 // Dependency spec changed since the last run
	StatusRepaired                // Directory was partial or damaged
)

func (s Status) String() string {
	switch s {
	case StatusReused:
		return "reused"
	case StatusUpdated:
		return "updated"
	case StatusRepaired:
		return "repaired"
	default:
		return "generated"
	}
}

// Wrote reports whether the status implies files were written.
func (s Status) Wrote() bool { return s != StatusReused }
