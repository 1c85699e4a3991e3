package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidRange         = errors.New("value out of range")
	ErrAlreadyCompleted     = errors.New("milestone already completed")
	ErrTerminalStage        = errors.New("connection is at the terminal stage")
	ErrInsufficientProgress = errors.New("insufficient stage progress")
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("conflict")
)

// NotFoundError reports an unknown connection or milestone id
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidRangeError reports a percentage or score outside its allowed interval
type InvalidRangeError struct {
	Field string
	Value int
	Min   int
	Max   int
	// MaxExclusive is set when Max itself is not allowed
	MaxExclusive bool
}

func (e *InvalidRangeError) Error() string {
	closing := "]"
	if e.MaxExclusive {
		closing = ")"
	}
	return fmt.Sprintf("%s must be in [%d,%d%s, got %d", e.Field, e.Min, e.Max, closing, e.Value)
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

type AlreadyCompletedError struct {
	MilestoneID string
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("milestone %q is already completed", e.MilestoneID)
}

func (e *AlreadyCompletedError) Is(target error) bool { return target == ErrAlreadyCompleted }

type TerminalStageError struct {
	Stage Stage
}

func (e *TerminalStageError) Error() string {
	return fmt.Sprintf("cannot advance past terminal stage %s", e.Stage)
}

func (e *TerminalStageError) Is(target error) bool { return target == ErrTerminalStage }

// InsufficientProgressError carries the current progress so callers can display it
type InsufficientProgressError struct {
	Stage     Stage
	Progress  int
	Threshold int
}

func (e *InsufficientProgressError) Error() string {
	return fmt.Sprintf("stage %s progress %d%% is below the %d%% required to advance", e.Stage, e.Progress, e.Threshold)
}

func (e *InsufficientProgressError) Is(target error) bool { return target == ErrInsufficientProgress }

type ValidationError struct {
	Msg string
}

func NewValidationError(msg string) error { return &ValidationError{Msg: msg} }

func (e *ValidationError) Error() string        { return e.Msg }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError reports a concurrent modification or a duplicate participant pair
type ConflictError struct {
	Msg string
}

func NewConflictError(msg string) error { return &ConflictError{Msg: msg} }

func (e *ConflictError) Error() string        { return e.Msg }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
