// Package errors provides coded, user-facing errors for the agentdeck CLI.
// Each code maps to a registered template with a message, detail, and fix
// suggestion so the terminal output explains how to recover.
package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategorySchema     Category = "schema"
	CategoryResources  Category = "resources"
	CategorySession    Category = "session"
	CategoryServer     Category = "server"
	CategoryGateway    Category = "gateway"
	CategoryValidation Category = "validation"
	CategoryCLI        Category = "cli"
)

// DeckError is a structured error with a code, detail, and fix suggestion.
type DeckError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (config, schema, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *DeckError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *DeckError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *DeckError) WithDetail(d string) *DeckError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *DeckError) WithSuggestion(s string) *DeckError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *DeckError) Wrap(err error) *DeckError {
	e.Wrapped = err
	return e
}

// New creates a DeckError from a registered error code.
func New(code string) *DeckError {
	template, ok := registry[code]
	if !ok {
		return &DeckError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &DeckError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new DeckError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *DeckError {
	return &DeckError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a DeckError.
func FromError(err error, code string) *DeckError {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DeckError); ok {
		return de
	}
	return New(code).Wrap(err)
}
