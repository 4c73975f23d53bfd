package api

import (
	"image"
)

// ImageLoader decodes the image file at path.
type ImageLoader interface {
	LoadImage(path string) (image.Image, error)
}
