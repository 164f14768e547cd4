package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Wrap them with fmt.Errorf("...: %w", ...) and match with errors.Is.
var (
	// ErrValidation marks malformed or missing request input. No generation is attempted.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing chat or an owner mismatch.
	ErrNotFound = errors.New("not found")

	// ErrGeneration marks a failed structured or free-text generation call.
	ErrGeneration = errors.New("generation failed")

	// ErrPublish marks a rejected or failed external publish.
	ErrPublish = errors.New("publish failed")

	// ErrPublishUnauthorized marks a publish attempt without usable credentials.
	ErrPublishUnauthorized = errors.New("publish not authorized")

	// ErrTitleGeneration is only ever logged; the turn continues without a title.
	ErrTitleGeneration = errors.New("title generation failed")
)

// Validation wraps ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the missing resource name.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// Generation wraps ErrGeneration around the underlying cause.
func Generation(cause error) error {
	return fmt.Errorf("%w: %w", ErrGeneration, cause)
}

// Publish wraps ErrPublish around the underlying cause.
func Publish(cause error) error {
	return fmt.Errorf("%w: %w", ErrPublish, cause)
}
