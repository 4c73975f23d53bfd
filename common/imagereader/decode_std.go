//go:build !libjpeg

package imagereader

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

func decodeImage(reader io.Reader) (image.Image, error) {
	decoded, _, err := image.Decode(reader)
	return decoded, err
}

func DecoderName() string {
	return "image/jpeg"
}
