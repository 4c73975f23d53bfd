package imagereader

import (
	"bytes"
	"github.com/spf13/afero"
	"image"
	"time"
	"vincit.fi/image-dataset/api"
	"vincit.fi/image-dataset/api/apitype"
	"vincit.fi/image-dataset/common/logger"
)

type Loader struct {
	fs             afero.Fs
	exifCorrection bool

	api.ImageLoader
}

func NewLoader(fs afero.Fs, exifCorrection bool) *Loader {
	return &Loader{
		fs:             fs,
		exifCorrection: exifCorrection,
	}
}

// LoadImage decodes the file at path. When EXIF correction is enabled the image is
// rotated and flipped upright according to its orientation tag.
func (s *Loader) LoadImage(path string) (image.Image, error) {
	startTime := time.Now()
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, &apitype.DecodeError{Path: path, Err: err}
	}

	decoded, err := decodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, &apitype.DecodeError{Path: path, Err: err}
	}
	if bounds := decoded.Bounds(); bounds.Empty() {
		return nil, &apitype.DecodeError{Path: path, Err: errEmptyImage}
	}
	decodedTime := time.Now()
	logger.Trace.Printf("'%s': Image decoded in %s", path, decodedTime.Sub(startTime))

	if s.exifCorrection {
		orientation := ReadOrientation(bytes.NewReader(data))
		if orientation != orientationNormal {
			logger.Trace.Printf("'%s': Applying EXIF orientation %d", path, orientation)
			decoded = ExifRotateImage(decoded, orientation)
		}
	}
	return decoded, nil
}
