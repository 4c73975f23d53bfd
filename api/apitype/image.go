package apitype

import (
	"image"
	"image/color"
)

const Channels = 3

// Image is an RGB pixel array stored row by row, three bytes per pixel.
type Image struct {
	pix  []uint8
	size Size
}

func NewImage(size Size) *Image {
	return &Image{
		pix:  make([]uint8, size.Pixels()*Channels),
		size: size,
	}
}

// NewImageFromPix wraps pix without copying. len(pix) must equal width*height*3.
func NewImageFromPix(size Size, pix []uint8) *Image {
	return &Image{
		pix:  pix,
		size: size,
	}
}

// ImageFromGo copies any decoded image into RGB channel order. Alpha is dropped.
func ImageFromGo(src image.Image) *Image {
	bounds := src.Bounds()
	dst := NewImage(SizeFromRectangle(bounds))

	switch typed := src.(type) {
	case *image.NRGBA:
		copyFourChannel(dst, typed.Pix, typed.Stride, typed.Rect, bounds)
	case *image.RGBA:
		copyFourChannel(dst, typed.Pix, typed.Stride, typed.Rect, bounds)
	default:
		offset := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := src.At(x, y).RGBA()
				dst.pix[offset] = uint8(r >> 8)
				dst.pix[offset+1] = uint8(g >> 8)
				dst.pix[offset+2] = uint8(b >> 8)
				offset += Channels
			}
		}
	}
	return dst
}

// JPEGs have no alpha so the stored values are passed as-is.
func copyFourChannel(dst *Image, pix []uint8, stride int, rect image.Rectangle, bounds image.Rectangle) {
	offset := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := (y-rect.Min.Y)*stride + (bounds.Min.X-rect.Min.X)*4
		for x := 0; x < bounds.Dx(); x++ {
			src := pix[row+x*4 : row+x*4+3 : row+x*4+3]
			dst.pix[offset] = src[0]
			dst.pix[offset+1] = src[1]
			dst.pix[offset+2] = src[2]
			offset += Channels
		}
	}
}

func (s *Image) Size() Size {
	return s.size
}

func (s *Image) Width() int {
	return s.size.width
}

func (s *Image) Height() int {
	return s.size.height
}

func (s *Image) Pix() []uint8 {
	return s.pix
}

func (s *Image) PixOffset(x int, y int) int {
	return (y*s.size.width + x) * Channels
}

func (s *Image) RGB(x int, y int) (uint8, uint8, uint8) {
	offset := s.PixOffset(x, y)
	return s.pix[offset], s.pix[offset+1], s.pix[offset+2]
}

func (s *Image) SetRGB(x int, y int, r uint8, g uint8, b uint8) {
	offset := s.PixOffset(x, y)
	s.pix[offset] = r
	s.pix[offset+1] = g
	s.pix[offset+2] = b
}

// Row returns the pixel bytes of row y.
func (s *Image) Row(y int) []uint8 {
	start := y * s.size.width * Channels
	return s.pix[start : start+s.size.width*Channels]
}

func (s *Image) ColorModel() color.Model {
	return color.RGBAModel
}

func (s *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.size.width, s.size.height)
}

func (s *Image) At(x int, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(s.Bounds())) {
		return color.RGBA{}
	}
	r, g, b := s.RGB(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// ToNRGBA converts to the representation imaging and the other resamplers read fastest.
func (s *Image) ToNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(s.Bounds())
	for i, j := 0, 0; i < len(s.pix); i, j = i+Channels, j+4 {
		dst.Pix[j] = s.pix[i]
		dst.Pix[j+1] = s.pix[i+1]
		dst.Pix[j+2] = s.pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst
}
