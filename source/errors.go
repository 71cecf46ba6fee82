package source

import (
	"errors"
	"fmt"
	"io/fs"
)

// FormatError reports input that does not conform to its grammar, such as
// invalid JSON/YAML or a generative response that is not JSON.
type FormatError struct {
	Format Format
	Path   string
	err    error
}

// NewFormatError wraps err as a FormatError for the given format and path.
func NewFormatError(format Format, path string, err error) error {
	return &FormatError{Format: format, Path: path, err: err}
}

func (e *FormatError) Error() string {
	if e.Format == FormatLLM {
		return fmt.Sprintf("LLM returned invalid JSON for %s: %v", e.Path, e.err)
	}
	return fmt.Sprintf("invalid %s in %s: %v", e.Format, e.Path, e.err)
}

func (e *FormatError) Unwrap() error {
	return e.err
}

// ValidationError reports a syntactically valid document with the wrong
// shape, such as a non-mapping OpenAPI root.
type ValidationError struct {
	Format Format
	Path   string
	Reason string
	err    error
}

// NewValidationError returns a ValidationError. err may be nil.
func NewValidationError(format Format, path, reason string, err error) error {
	return &ValidationError{Format: format, Path: path, Reason: reason, err: err}
}

func (e *ValidationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s spec in %s %s: %v", e.Format, e.Path, e.Reason, e.err)
	}
	return fmt.Sprintf("%s spec in %s %s", e.Format, e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// ParsingError is the single error family returned by the router for any
// failure other than a missing file.
type ParsingError struct {
	Msg string
	err error
}

// NewParsingError returns a ParsingError with an optional cause.
func NewParsingError(msg string, cause error) error {
	return &ParsingError{Msg: msg, err: cause}
}

// WrapParsingError converts err into a ParsingError unless it already is one
// or reports a missing file. nil stays nil.
func WrapParsingError(err error) error {
	if err == nil || IsNotFound(err) {
		return err
	}
	var pe *ParsingError
	if errors.As(err, &pe) {
		return err
	}
	return &ParsingError{Msg: err.Error(), err: err}
}

func (e *ParsingError) Error() string {
	return e.Msg
}

func (e *ParsingError) Unwrap() error {
	return e.err
}

// IsNotFound reports whether err means the spec file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// IsParsingError reports whether err belongs to the ParsingError family.
func IsParsingError(err error) bool {
	var pe *ParsingError
	return errors.As(err, &pe)
}
