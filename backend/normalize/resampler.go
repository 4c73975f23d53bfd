package normalize

import (
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"image"
	"sort"
	"vincit.fi/image-dataset/api"
	"vincit.fi/image-dataset/api/apitype"
)

const DefaultResampler = "linear"

type imagingResampler struct {
	name   string
	filter imaging.ResampleFilter

	api.Resampler
}

func (s *imagingResampler) Name() string {
	return s.name
}

func (s *imagingResampler) Resize(img *apitype.Image, size apitype.Size) *apitype.Image {
	return apitype.ImageFromGo(imaging.Resize(img.ToNRGBA(), size.GetWidth(), size.GetHeight(), s.filter))
}

type nfntResampler struct {
	name          string
	interpolation resize.InterpolationFunction

	api.Resampler
}

func (s *nfntResampler) Name() string {
	return s.name
}

func (s *nfntResampler) Resize(img *apitype.Image, size apitype.Size) *apitype.Image {
	return apitype.ImageFromGo(resize.Resize(uint(size.GetWidth()), uint(size.GetHeight()), img.ToNRGBA(), s.interpolation))
}

type drawResampler struct {
	name         string
	interpolator draw.Interpolator

	api.Resampler
}

func (s *drawResampler) Name() string {
	return s.name
}

func (s *drawResampler) Resize(img *apitype.Image, size apitype.Size) *apitype.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, size.GetWidth(), size.GetHeight()))
	s.interpolator.Scale(dst, dst.Bounds(), img.ToNRGBA(), img.Bounds(), draw.Src, nil)
	return apitype.ImageFromGo(dst)
}

var resamplers = map[string]api.Resampler{
	"linear":           &imagingResampler{name: "linear", filter: imaging.Linear},
	"nearest":          &imagingResampler{name: "nearest", filter: imaging.NearestNeighbor},
	"lanczos":          &imagingResampler{name: "lanczos", filter: imaging.Lanczos},
	"nfnt-bilinear":    &nfntResampler{name: "nfnt-bilinear", interpolation: resize.Bilinear},
	"nfnt-nearest":     &nfntResampler{name: "nfnt-nearest", interpolation: resize.NearestNeighbor},
	"xdraw-bilinear":   &drawResampler{name: "xdraw-bilinear", interpolator: draw.ApproxBiLinear},
	"xdraw-catmullrom": &drawResampler{name: "xdraw-catmullrom", interpolator: draw.CatmullRom},
}

func ResamplerByName(name string) (api.Resampler, error) {
	if resampler, ok := resamplers[name]; ok {
		return resampler, nil
	}
	return nil, errors.Errorf("unknown resampler '%s', available: %v", name, ResamplerNames())
}

func ResamplerNames() []string {
	names := make([]string, 0, len(resamplers))
	for name := range resamplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
