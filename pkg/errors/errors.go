package errors

import (
	"errors"
	"fmt"
)

var (
	ErrTargetFileNotFound = errors.New("target file not found")
	ErrNoTargets          = errors.New("no targets loaded")
	ErrArtifactMissing    = errors.New("required artifact missing")
	ErrArtifactEmpty      = errors.New("required artifact empty")
	ErrStageFailed        = errors.New("stage failed")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// StageError wraps a failure of one pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewStageError(stage string, err error) *StageError {
	return &StageError{
		Stage: stage,
		Err:   err,
	}
}

// TargetError wraps a failure scoped to a single target. It is recorded as
// data in task results and never aborts a batch.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("target %s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

func NewTargetError(target string, err error) *TargetError {
	return &TargetError{
		Target: target,
		Err:    err,
	}
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func NewConfigError(field string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
