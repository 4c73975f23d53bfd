package normalize

import (
	"github.com/pkg/errors"
	"strings"
	"time"
	"vincit.fi/image-dataset/api"
	"vincit.fi/image-dataset/api/apitype"
	"vincit.fi/image-dataset/common/logger"
)

type CropMode int

const (
	// CropCentered always yields exactly the crop size.
	CropCentered CropMode = iota
	// CropLegacy ends the crop window at size-margin, which is one pixel larger than the
	// crop size on an axis where size-crop is odd.
	CropLegacy
)

func (s CropMode) String() string {
	switch s {
	case CropCentered:
		return "centered"
	case CropLegacy:
		return "legacy"
	}
	return "unknown"
}

func ParseCropMode(value string) (CropMode, error) {
	switch strings.ToLower(value) {
	case "", "centered":
		return CropCentered, nil
	case "legacy":
		return CropLegacy, nil
	}
	return CropCentered, errors.Errorf("unknown crop mode '%s'", value)
}

type Normalizer struct {
	resize    apitype.Size
	crop      apitype.Size
	resampler api.Resampler
	cropMode  CropMode
}

func NewNormalizer(resize apitype.Size, crop apitype.Size, resampler api.Resampler, cropMode CropMode) (*Normalizer, error) {
	if !resize.IsValid() || !crop.IsValid() {
		return nil, errors.Errorf("resize %s and crop %s must be positive", resize, crop)
	}
	if !resize.Fits(crop) {
		return nil, errors.Errorf("crop %s does not fit in resize %s", crop, resize)
	}
	if resampler == nil {
		return nil, errors.New("no resampler given")
	}
	return &Normalizer{
		resize:    resize,
		crop:      crop,
		resampler: resampler,
		cropMode:  cropMode,
	}, nil
}

func (s *Normalizer) ResizeSize() apitype.Size {
	return s.resize
}

func (s *Normalizer) CropSize() apitype.Size {
	return s.crop
}

// OutputSize is the size every normalized image has.
func (s *Normalizer) OutputSize() apitype.Size {
	return CropOutputSize(s.resize, s.crop, s.cropMode)
}

// Normalize resizes img preserving its aspect ratio, centers it on a black canvas of the
// resize size and cuts the center crop out of the canvas.
func (s *Normalizer) Normalize(img *apitype.Image) *apitype.Image {
	startTime := time.Now()
	tile := TileSize(img.Size(), s.resize)
	resized := s.resampler.Resize(img, tile)
	padded := CenterPad(resized, s.resize)
	cropped := CenterCrop(padded, s.crop, s.cropMode)
	logger.Trace.Printf(" - Normalized %s -> %s -> %s in %s", img.Size(), tile, cropped.Size(), time.Since(startTime))
	return cropped
}

// TileSize returns the aspect preserving size of source inside target. When the source is
// taller than wide the height is held at the target height, otherwise the width is held
// at the target width. The result never exceeds target on either axis.
func TileSize(source apitype.Size, target apitype.Size) apitype.Size {
	sourceWidth, sourceHeight := source.GetWidth(), source.GetHeight()
	targetWidth, targetHeight := target.GetWidth(), target.GetHeight()

	var width, height int
	if sourceHeight > sourceWidth {
		height = targetHeight
		width = sourceWidth * targetHeight / sourceHeight
	} else {
		width = targetWidth
		height = sourceHeight * targetWidth / sourceWidth
	}
	if !target.Fits(apitype.SizeOf(width, height)) {
		width, height = apitype.ScaleToFit(sourceWidth, sourceHeight, targetWidth, targetHeight)
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return apitype.SizeOf(width, height)
}

// CenterPad copies tile onto the middle of a black canvas of the given size.
func CenterPad(tile *apitype.Image, size apitype.Size) *apitype.Image {
	canvas := apitype.NewImage(size)
	rowOffset := (size.GetHeight() - tile.Height()) / 2
	colOffset := (size.GetWidth() - tile.Width()) / 2

	for y := 0; y < tile.Height(); y++ {
		dst := canvas.Row(y + rowOffset)
		copy(dst[colOffset*apitype.Channels:], tile.Row(y))
	}
	return canvas
}

func CropOutputSize(source apitype.Size, crop apitype.Size, cropMode CropMode) apitype.Size {
	if cropMode == CropLegacy {
		rowMargin := (source.GetHeight() - crop.GetHeight()) / 2
		colMargin := (source.GetWidth() - crop.GetWidth()) / 2
		return apitype.SizeOf(source.GetWidth()-2*colMargin, source.GetHeight()-2*rowMargin)
	}
	return crop
}

// CenterCrop cuts the window starting at the floor of half the size difference.
func CenterCrop(img *apitype.Image, crop apitype.Size, cropMode CropMode) *apitype.Image {
	rowMargin := (img.Height() - crop.GetHeight()) / 2
	colMargin := (img.Width() - crop.GetWidth()) / 2
	size := CropOutputSize(img.Size(), crop, cropMode)

	cropped := apitype.NewImage(size)
	start := colMargin * apitype.Channels
	end := start + size.GetWidth()*apitype.Channels
	for y := 0; y < size.GetHeight(); y++ {
		copy(cropped.Row(y), img.Row(y + rowMargin)[start:end])
	}
	return cropped
}
