package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound indicates a configuration file was not found.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidYAML indicates YAML parsing failed.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrLLMProviderNotFound indicates an LLM provider was not found in the registry.
	ErrLLMProviderNotFound = errors.New("LLM provider not found")
)

// ValidationError wraps configuration validation errors with context.
type ValidationError struct {
	Component string // component being validated (e.g. "llm_provider", "retention")
	ID        string // id of the component, if any
	Field     string // field name, optional
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s '%s': field '%s': %v", e.Component, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("%s '%s': %v", e.Component, e.ID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError constructs a ValidationError.
func NewValidationError(component, id, field string, err error) *ValidationError {
	return &ValidationError{Component: component, ID: id, Field: field, Err: err}
}

// LoadError wraps configuration loading errors with file context.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("failed to load %s: %v", e.File, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// NewLoadError constructs a LoadError.
func NewLoadError(file string, err error) *LoadError {
	return &LoadError{File: file, Err: err}
}
