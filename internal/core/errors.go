package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a capability, tool, conversation, or session
// lookup misses. It is recoverable: callers decide the next step.
var ErrNotFound = errors.New("not found")

// ErrConversationClosed is returned when a message append hits a closed
// conversation and the closed-conversation policy is "reject".
var ErrConversationClosed = errors.New("conversation is closed")

// ConfigError reports a malformed or inconsistent registry/config document.
// It is fatal at load time and must prevent serving.
type ConfigError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Source, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StorageError reports an I/O failure on a durable write or read. It is
// distinct from ErrNotFound so callers can retry storage failures but give
// up on missing records.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError reports missing or empty required input, rejected before
// any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsStorage reports whether err is a storage-layer I/O failure.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
