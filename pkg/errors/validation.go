package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// mavenIDRegex matches groupId, artifactId and goal names as Maven accepts them.
var mavenIDRegex = regexp.MustCompile(`^[A-Za-z0-9_\-.]+$`)

// ValidateMavenID validates a single groupId, artifactId or version segment.
//
// The rules are conservative because the value ends up on a subprocess
// command line:
//   - No empty values
//   - No control characters or whitespace
//   - Only letters, digits, '-', '_' and '.'
//   - Maximum length of 256 characters
func ValidateMavenID(kind, value string) error {
	if value == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}

	if len(value) > 256 {
		return New(ErrCodeInvalidInput, "%s too long (max 256 characters)", kind)
	}

	for _, r := range value {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid characters", kind)
		}
	}

	if !mavenIDRegex.MatchString(value) {
		return New(ErrCodeInvalidInput, "invalid %s: %q", kind, value)
	}

	return nil
}

// ValidatePluginCoordinate validates a "groupId:artifactId" or
// "groupId:artifactId:version" plugin coordinate.
func ValidatePluginCoordinate(coord string) error {
	parts := strings.Split(coord, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return New(ErrCodeInvalidInput, "plugin coordinate must be groupId:artifactId[:version], got %q", coord)
	}

	kinds := []string{"groupId", "artifactId", "version"}
	for i, p := range parts {
		if err := ValidateMavenID(kinds[i], p); err != nil {
			return err
		}
	}
	return nil
}

// targetNameRegex matches orchestrator target names.
var targetNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9:_\-.]*$`)

// ValidateTargetName validates a configured target name such as "build".
func ValidateTargetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "target name cannot be empty")
	}

	if !targetNameRegex.MatchString(name) {
		return New(ErrCodeInvalidConfig, "invalid target name: %q", name)
	}

	return nil
}

// ValidateModulePath validates a <module> entry from an aggregator POM.
// Relative paths including ".." are legal in Maven and are accepted.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Must be relative (cannot start with /)
func ValidateModulePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidInput, "module path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "module path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "module path must be relative: %q", path)
	}

	return nil
}
