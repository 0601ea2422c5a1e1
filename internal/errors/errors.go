package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/mono/internal/logger"
)

// Kind classifies a persistence failure.
type Kind string

const (
	KindOpen     Kind = "open"
	KindRead     Kind = "read"
	KindWrite    Kind = "write"
	KindNotFound Kind = "not_found"
	KindConflict Kind = "conflict"
)

var (
	// ErrNotFound is returned when a record with the requested id does not exist.
	ErrNotFound = stderrors.New("record not found")
	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = stderrors.New("record conflicts with an existing one")
)

// StoreError describes a failed persistence operation.
type StoreError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failed", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinels by kind even when the wrapped
// driver error is something else.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	}
	return false
}

// Wrap returns a *StoreError for err, or nil when err is nil.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Kind: kind, Err: err}
}

// NotFound builds a not_found StoreError for op.
func NotFound(op string) error {
	return &StoreError{Op: op, Kind: KindNotFound, Err: ErrNotFound}
}

// Conflict builds a conflict StoreError for op.
func Conflict(op string, err error) error {
	if err == nil {
		err = ErrConflict
	}
	return &StoreError{Op: op, Kind: KindConflict, Err: err}
}

// KindOf reports the Kind of the first StoreError in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *StoreError
	if stderrors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
