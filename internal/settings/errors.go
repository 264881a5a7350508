package settings

import "fmt"

// File kinds, used in error messages
const (
	KindSettings = "Settings"
	KindSecurity = "Security"
)

// NotFoundError is returned when an input file does not exist.
type NotFoundError struct {
	Kind string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s file : %s does not exist", e.Kind, e.Path)
}

// ParseError is returned when an input file is not a well-formed document of
// the expected kind.
type ParseError struct {
	Kind string
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s file %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingFieldError is returned when a required element is absent or empty.
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: no <%s> value present", e.Path, e.Field)
}
