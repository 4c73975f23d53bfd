package imagereader

import (
	"errors"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"image"
	"io"
	"vincit.fi/image-dataset/common/logger"
)

const orientationNormal = 1

var errEmptyImage = errors.New("image has no pixels")

// ReadOrientation returns the EXIF orientation tag (1-8). Missing or unreadable EXIF data
// is treated as the normal orientation.
func ReadOrientation(reader io.Reader) int {
	decodedExif, err := exif.Decode(reader)
	if err != nil {
		logger.Trace.Printf("No EXIF data: %s", err)
		return orientationNormal
	}
	tag, err := decodedExif.Get(exif.Orientation)
	if err != nil {
		return orientationNormal
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		logger.Warn.Printf("Invalid EXIF orientation, ignoring: %v", err)
		return orientationNormal
	}
	return orientation
}

func ExifRotateImage(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
