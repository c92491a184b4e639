package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yamdb/yamdb/logger"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotAuthenticated = errors.New("authentication credentials were not provided")
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
	ErrInvalidToken     = errors.New("given token not valid for any token type")
	ErrThrottled        = errors.New("request was throttled")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrInvalidPage      = fmt.Errorf("invalid page: %w", ErrNotFound)
)

func NewErrorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return errors.New(msg)
}

func NewError(a ...any) error {
	msg := fmt.Sprintln(a...)
	return errors.New(msg)
}

func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}

// FieldError is one failed rule on one input field. MessageID names a
// translation entry; Data fills its template.
type FieldError struct {
	MessageID string
	Data      map[string]any
}

// ValidationError collects field errors; it maps to HTTP 400.
type ValidationError struct {
	Fields map[string][]FieldError
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]FieldError)}
}

// Invalid is a shortcut for a validation error on a single field.
func Invalid(field, messageID string, data ...map[string]any) *ValidationError {
	return NewValidationError().Add(field, messageID, data...)
}

func (e *ValidationError) Add(field, messageID string, data ...map[string]any) *ValidationError {
	fe := FieldError{MessageID: messageID}
	if len(data) > 0 {
		fe.Data = data[0]
	}
	e.Fields[field] = append(e.Fields[field], fe)
	return e
}

// Merge folds err into e when err is a validation error and reports
// whether it did.
func (e *ValidationError) Merge(err error) bool {
	var other *ValidationError
	if !errors.As(err, &other) {
		return false
	}
	for field, list := range other.Fields {
		e.Fields[field] = append(e.Fields[field], list...)
	}
	return true
}

// Has reports whether field already failed a rule.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// OrNil returns nil when nothing was collected.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		ids := make([]string, 0, len(e.Fields[k]))
		for _, fe := range e.Fields[k] {
			ids = append(ids, fe.MessageID)
		}
		parts = append(parts, k+": "+strings.Join(ids, ","))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports a missing resource. When Field is set the error is
// rendered against that input field instead of as a generic detail.
type NotFoundError struct {
	Resource string
	Field    string
}

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func NotFoundField(resource, field string) error {
	return &NotFoundError{Resource: resource, Field: field}
}

func (e *NotFoundError) Error() string {
	return e.Resource + " " + ErrNotFound.Error()
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsValidation reports whether err carries field validation errors.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
