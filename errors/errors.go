/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrConfiguration is returned for programmer mistakes detected at construction time
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownType is returned when a registry lookup names a type that was never registered
	ErrUnknownType = errors.New("unknown type")

	// ErrDuplicateType is returned when a type name is registered twice
	ErrDuplicateType = errors.New("duplicate type")

	// ErrNoProxy is returned when a request is executed without a proxy
	ErrNoProxy = errors.New("request has no proxy")

	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when attempting to create a record that already exists
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrNoIndexMap is returned when no index map is registered for a model
	ErrNoIndexMap = errors.New("no index map found for model")

	// ErrAborted is returned by Wait on an operation that was aborted.
	// Aborting is not a failure; fail callbacks never see it.
	ErrAborted = errors.New("operation aborted")

	// ErrRequestFailed stands in when a request is failed without an error
	ErrRequestFailed = errors.New("request failed")
)

// ConfigError represents a configuration mistake in a named component
type ConfigError struct {
	Component string
	Message   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s", e.Component, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// TypeError represents a failed registry operation for a type name
type TypeError struct {
	Registry  string
	Type      string
	Duplicate bool
}

func (e *TypeError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("%s registry: type %q already registered", e.Registry, e.Type)
	}
	if e.Type == "" {
		return fmt.Sprintf("%s registry: missing type", e.Registry)
	}
	return fmt.Sprintf("%s registry: no type registered for %q", e.Registry, e.Type)
}

func (e *TypeError) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return true
	case ErrDuplicateType:
		return e.Duplicate
	case ErrUnknownType:
		return !e.Duplicate
	}
	return false
}

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a record already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// StorageError wraps an I/O failure reported by a proxy for one request
type StorageError struct {
	Proxy  string
	Action string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s proxy: %s failed: %v", e.Proxy, e.Action, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string) error {
	return &ConfigError{Component: component, Message: message}
}

// NewUnknownTypeError creates a TypeError for a missing or unregistered type
func NewUnknownTypeError(registry, typ string) error {
	return &TypeError{Registry: registry, Type: typ}
}

// NewDuplicateTypeError creates a TypeError for a type registered twice
func NewDuplicateTypeError(registry, typ string) error {
	return &TypeError{Registry: registry, Type: typ, Duplicate: true}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(recordType, key string) error {
	return &NotFoundError{Type: recordType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(recordType, key string) error {
	return &AlreadyExistsError{Type: recordType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewStorageError creates a new StorageError
func NewStorageError(proxy, action string, err error) error {
	return &StorageError{Proxy: proxy, Action: action, Err: err}
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsUnknownType checks if an error reports an unregistered type
func IsUnknownType(err error) bool {
	return errors.Is(err, ErrUnknownType)
}

// IsDuplicateType checks if an error reports a duplicate registration
func IsDuplicateType(err error) bool {
	return errors.Is(err, ErrDuplicateType)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsAborted checks if an error reports an aborted operation
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}
