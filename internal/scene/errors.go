package scene

import (
	"errors"
	"fmt"

	"github.com/san-kum/rigidsim/internal/constraint"
)

var (
	// ErrNotFound indicates a scene or constraint file that does not exist.
	ErrNotFound = errors.New("scene: file not found")

	// ErrMalformed indicates a record that could not be parsed.
	ErrMalformed = errors.New("scene: malformed record")

	// ErrIndexOutOfRange indicates a constraint naming a missing body or vertex.
	ErrIndexOutOfRange = constraint.ErrIndexOutOfRange
)

// LoadError reports where loading failed. Line is zero when the failure is
// not tied to a particular line.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
