package errors

import (
	"slices"
	"strings"
	"unicode"
)

// MaxNodeNameLength bounds the length of a node name accepted on input.
const MaxNodeNameLength = 1024

// reservedSeparator joins the parts of synthetic bridge and structural node
// names, so user nodes may not contain it.
const reservedSeparator = "~~"

// ValidateNodeName checks a node name taken from an input graph or a flag.
//
// A valid name:
//   - is not empty and at most [MaxNodeNameLength] bytes
//   - contains no control characters
//   - has no empty scope segment (leading, trailing or doubled '/')
//   - does not contain the reserved "~~" separator
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "node name cannot be empty")
	}
	if len(name) > MaxNodeNameLength {
		return New(ErrCodeInvalidName, "node name too long (max %d characters)", MaxNodeNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "node name contains invalid control characters")
		}
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.Contains(name, "//") {
		return New(ErrCodeInvalidName, "node name %q has an empty scope segment", name)
	}
	if strings.Contains(name, reservedSeparator) {
		return New(ErrCodeInvalidName, "node name %q contains reserved %q", name, reservedSeparator)
	}
	return nil
}

// ValidateScope checks a scope name given on the command line. The empty
// string names the root scope and is accepted.
func ValidateScope(scope string) error {
	if scope == "" {
		return nil
	}
	return ValidateNodeName(scope)
}

// ValidateFormat checks that format is one of allowed, ignoring case.
func ValidateFormat(format string, allowed ...string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, format) }) {
		return nil
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}

// ValidatePath validates a file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}
	return nil
}
