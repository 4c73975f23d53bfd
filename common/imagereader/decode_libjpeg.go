//go:build libjpeg

package imagereader

import (
	"github.com/pixiv/go-libjpeg/jpeg"
	"image"
	"io"
)

var options = &jpeg.DecoderOptions{}

func decodeImage(reader io.Reader) (image.Image, error) {
	return jpeg.Decode(reader, options)
}

func DecoderName() string {
	return "libjpeg"
}
