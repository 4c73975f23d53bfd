package api

import (
	"vincit.fi/image-dataset/api/apitype"
)

// Resampler scales an image to exactly the given size.
type Resampler interface {
	Name() string
	Resize(img *apitype.Image, size apitype.Size) *apitype.Image
}
