package apitype

import (
	"fmt"
)

// DecodeError is returned when an image file cannot be read or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode image '%s': %s", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ArchiveFormatError is returned when an archive is missing, malformed or lacks an
// expected array. Key is empty when the failure is not tied to a single entry.
type ArchiveFormatError struct {
	Archive string
	Key     string
	Msg     string
	Err     error
}

func (e *ArchiveFormatError) Error() string {
	message := fmt.Sprintf("invalid archive '%s'", e.Archive)
	if e.Key != "" {
		message = fmt.Sprintf("%s, key '%s'", message, e.Key)
	}
	if e.Msg != "" {
		message = fmt.Sprintf("%s: %s", message, e.Msg)
	}
	if e.Err != nil {
		message = fmt.Sprintf("%s: %s", message, e.Err)
	}
	return message
}

func (e *ArchiveFormatError) Unwrap() error { return e.Err }

// LabelOutOfRangeError is returned when an encoded label does not fit the class count.
type LabelOutOfRangeError struct {
	Index      int
	Label      int
	NumClasses int
}

func (e *LabelOutOfRangeError) Error() string {
	return fmt.Sprintf("label %d at index %d is outside [0, %d)", e.Label, e.Index, e.NumClasses)
}

// ShapeMismatchError is returned when image and label counts diverge or an image does
// not have the shape shared by the rest of the dataset. Source names the file or
// archive key the mismatch was found in.
type ShapeMismatchError struct {
	Source   string
	Expected interface{}
	Actual   interface{}
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch in '%s': expected %v, got %v", e.Source, e.Expected, e.Actual)
}
