package contract

import (
	"context"
	"fmt"
	"time"
)

// NotFoundError is returned when the analysis root does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

// EmptyProjectError is returned when discovery finds no eligible files.
type EmptyProjectError struct {
	Root string
}

func (e *EmptyProjectError) Error() string {
	return fmt.Sprintf("no analyzable files found under %s", e.Root)
}

// UnreadableFileWarning marks a file or directory that could not be read.
// The entry is skipped and the run continues.
type UnreadableFileWarning struct {
	Path string
	Err  error
}

func (e *UnreadableFileWarning) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *UnreadableFileWarning) Unwrap() error {
	return e.Err
}

// DecodeError marks a file whose content is not valid text.
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %s", e.Path, e.Reason)
}

// TimeoutError is returned when an analysis exceeds its configured deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analysis timed out after %s", e.After)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}
