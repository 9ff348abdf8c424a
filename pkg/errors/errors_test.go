package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNodeNotFound, "no node named %q", "a/b")

	if err.Code != ErrCodeNodeNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNodeNotFound)
	}
	if err.Message != `no node named "a/b"` {
		t.Errorf("Message = %v, want %v", err.Message, `no node named "a/b"`)
	}

	expected := `NODE_NOT_FOUND: no node named "a/b"`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeInvalidFormat, cause, "decode graph.json")

	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFormat)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	want := "INVALID_FORMAT: decode graph.json: unexpected EOF"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidGraph, "test"),
			code:     ErrCodeInvalidGraph,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidGraph, "test"),
			code:     ErrCodeFileNotFound,
			expected: false,
		},
		{
			name:     "outer code wins",
			err:      Wrap(ErrCodeInternal, New(ErrCodeInvalidGraph, "inner"), "outer"),
			code:     ErrCodeInternal,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("load: %w", New(ErrCodeFileNotFound, "missing")),
			code:     ErrCodeFileNotFound,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "empty code never matches",
			err:      errors.New("plain error"),
			code:     "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeInvalidParams, "test"), ErrCodeInvalidParams},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
		{"wrapped plain", Wrap(ErrCodeInvalidGraph, errors.New("cycle"), "build"), "build: cycle"},
		{"nested codes", Wrap(ErrCodeInvalidInput, New(ErrCodeInvalidInput, "path cannot be empty"), "input"), "input: path cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"internal", New(ErrCodeInternal, "bug"), 1},
		{"invalid graph", New(ErrCodeInvalidGraph, "cycle"), 2},
		{"missing file", fmt.Errorf("x: %w", New(ErrCodeFileNotFound, "gone")), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %v, want %v", got, tt.want)
			}
		})
	}
}
