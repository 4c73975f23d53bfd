package archive

import (
	"fmt"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"vincit.fi/image-dataset/api/apitype"
)

type DType string

const (
	DTypeUint8   DType = "uint8"
	DTypeFloat32 DType = "float32"
	DTypeInt32   DType = "int32"
	DTypeString  DType = "string"
)

func (s DType) itemSize() int {
	switch s {
	case DTypeUint8:
		return 1
	case DTypeFloat32, DTypeInt32:
		return 4
	default:
		return 0
	}
}

func parseDType(value string) (DType, error) {
	switch DType(value) {
	case DTypeUint8, DTypeFloat32, DTypeInt32, DTypeString:
		return DType(value), nil
	default:
		return "", errors.Errorf("unknown dtype '%s'", value)
	}
}

// Array is a named n-dimensional array stored in an archive.
type Array struct {
	name   string
	dtype  DType
	shape  []int
	data   []byte
	source string
}

func NewUint8Array(name string, shape []int, values []uint8) (*Array, error) {
	if err := checkLength(name, shape, len(values)); err != nil {
		return nil, err
	}
	return &Array{name: name, dtype: DTypeUint8, shape: copyShape(shape), data: values}, nil
}

func NewFloat32Array(name string, shape []int, values []float32) (*Array, error) {
	if err := checkLength(name, shape, len(values)); err != nil {
		return nil, err
	}
	return &Array{name: name, dtype: DTypeFloat32, shape: copyShape(shape), data: encodeFloat32(values)}, nil
}

func NewInt32Array(name string, shape []int, values []int32) (*Array, error) {
	if err := checkLength(name, shape, len(values)); err != nil {
		return nil, err
	}
	return &Array{name: name, dtype: DTypeInt32, shape: copyShape(shape), data: encodeInt32(values)}, nil
}

// NewStringArray creates a one-dimensional string array.
func NewStringArray(name string, values []string) (*Array, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, errors.Wrapf(err, "could not encode array '%s'", name)
	}
	return &Array{name: name, dtype: DTypeString, shape: []int{len(values)}, data: data}, nil
}

func (s *Array) Name() string {
	return s.name
}

func (s *Array) DType() DType {
	return s.dtype
}

func (s *Array) Shape() []int {
	return copyShape(s.shape)
}

// Len returns the size of the outermost dimension.
func (s *Array) Len() int {
	if len(s.shape) == 0 {
		return 0
	}
	return s.shape[0]
}

// Size returns the number of elements.
func (s *Array) Size() int {
	return shapeSize(s.shape)
}

func (s *Array) ByteSize() int {
	return len(s.data)
}

func (s *Array) Uint8() ([]uint8, error) {
	if err := s.expectDType(DTypeUint8); err != nil {
		return nil, err
	}
	return s.data, nil
}

func (s *Array) Float32() ([]float32, error) {
	if err := s.expectDType(DTypeFloat32); err != nil {
		return nil, err
	}
	return decodeFloat32(s.data), nil
}

func (s *Array) Int32() ([]int32, error) {
	if err := s.expectDType(DTypeInt32); err != nil {
		return nil, err
	}
	return decodeInt32(s.data), nil
}

func (s *Array) Strings() ([]string, error) {
	if err := s.expectDType(DTypeString); err != nil {
		return nil, err
	}
	var values []string
	if err := json.Unmarshal(s.data, &values); err != nil {
		return nil, s.formatError("could not decode strings", err)
	}
	return values, nil
}

func (s *Array) String() string {
	return fmt.Sprintf("%s %s%v", s.name, s.dtype, s.shape)
}

func (s *Array) expectDType(dtype DType) error {
	if s.dtype != dtype {
		return s.formatError(fmt.Sprintf("expected dtype %s, got %s", dtype, s.dtype), nil)
	}
	return nil
}

// validate checks that the stored bytes match the declared shape.
func (s *Array) validate() error {
	for _, dim := range s.shape {
		if dim < 0 {
			return s.formatError(fmt.Sprintf("negative dimension in shape %v", s.shape), nil)
		}
	}
	if s.dtype == DTypeString {
		values, err := s.Strings()
		if err != nil {
			return err
		}
		if len(values) != s.Size() {
			return s.formatError(fmt.Sprintf("%d strings do not match shape %v", len(values), s.shape), nil)
		}
		return nil
	}
	if expected := s.Size() * s.dtype.itemSize(); expected != len(s.data) {
		return s.formatError(fmt.Sprintf("%d bytes do not match shape %v of %s", len(s.data), s.shape, s.dtype), nil)
	}
	return nil
}

func (s *Array) formatError(message string, err error) error {
	return &apitype.ArchiveFormatError{Archive: s.source, Key: s.name, Msg: message, Err: err}
}

func checkLength(name string, shape []int, length int) error {
	if expected := shapeSize(shape); expected != length {
		return &apitype.ShapeMismatchError{Source: name, Expected: shape, Actual: length}
	}
	return nil
}

func shapeSize(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return size
}

func copyShape(shape []int) []int {
	return append([]int{}, shape...)
}
