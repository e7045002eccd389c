package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// cratesPackageNameRegex matches the dependency keys cargo accepts: a letter
// or underscore followed by letters, digits, underscores and hyphens.
var cratesPackageNameRegex = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_-]*$`)

// ValidateCratesPackageName validates a crate name or dependency key.
// Separators, dots and whitespace are rejected, so a valid name is always a
// single path element.
func ValidateCratesPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if !cratesPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid crate name: %q", name)
	}

	return nil
}
