package apitype

import (
	"fmt"
	"github.com/pkg/errors"
	"image"
	"strconv"
	"strings"
)

type Size struct {
	width  int
	height int
}

func (s Size) GetHeight() int {
	return s.height
}

func (s Size) GetWidth() int {
	return s.width
}

func (s Size) IsValid() bool {
	return s.width > 0 && s.height > 0
}

// Fits reports whether other fits inside s on both axes.
func (s Size) Fits(other Size) bool {
	return other.width <= s.width && other.height <= s.height
}

func (s Size) Pixels() int {
	return s.width * s.height
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.width, s.height)
}

func SizeOf(width int, height int) Size {
	return Size{width, height}
}

func SizeFromRectangle(rectangle image.Rectangle) Size {
	return Size{
		width:  rectangle.Dx(),
		height: rectangle.Dy(),
	}
}

// ParseSize parses "<width>x<height>", e.g. "256x256".
func ParseSize(value string) (Size, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(value)), "x")
	if len(parts) != 2 {
		return Size{}, errors.Errorf("invalid size '%s', expected <width>x<height>", value)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return Size{}, errors.Wrapf(err, "invalid width in size '%s'", value)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return Size{}, errors.Wrapf(err, "invalid height in size '%s'", value)
	}
	size := SizeOf(width, height)
	if !size.IsValid() {
		return Size{}, errors.Errorf("size '%s' must be positive", value)
	}
	return size, nil
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Size) UnmarshalText(text []byte) error {
	parsed, err := ParseSize(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ScaleToFit holds the target height and floors the width to the source aspect ratio.
// When that width overflows, the width is held at the target width instead.
func ScaleToFit(sourceWidth int, sourceHeight int, targetWidth int, targetHeight int) (int, int) {
	newWidth := sourceWidth * targetHeight / sourceHeight
	newHeight := targetHeight

	if newWidth > targetWidth {
		newWidth = targetWidth
		newHeight = sourceHeight * targetWidth / sourceWidth
	}
	return newWidth, newHeight
}
