package apitype

// ImageBatch is a contiguous (N, height, width, 3) uint8 tensor. Every image in the
// batch has the same size.
type ImageBatch struct {
	pix   []uint8
	size  Size
	count int
}

func NewImageBatch(size Size, capacity int) *ImageBatch {
	return &ImageBatch{
		pix:  make([]uint8, 0, capacity*size.Pixels()*Channels),
		size: size,
	}
}

// NewImageBatchFromPix wraps pix without copying. The number of images is derived from the
// length of pix, which must be a multiple of the image byte size.
func NewImageBatchFromPix(size Size, pix []uint8) *ImageBatch {
	count := 0
	if imageBytes := size.Pixels() * Channels; imageBytes > 0 {
		count = len(pix) / imageBytes
	}
	return &ImageBatch{
		pix:   pix,
		size:  size,
		count: count,
	}
}

// Append copies image to the end of the batch.
func (s *ImageBatch) Append(path string, image *Image) error {
	if image.Size() != s.size {
		return &ShapeMismatchError{Source: path, Expected: s.size, Actual: image.Size()}
	}
	s.pix = append(s.pix, image.Pix()...)
	s.count++
	return nil
}

func (s *ImageBatch) Len() int {
	return s.count
}

func (s *ImageBatch) ImageSize() Size {
	return s.size
}

// Shape returns the tensor shape (N, height, width, channels).
func (s *ImageBatch) Shape() []int {
	return []int{s.count, s.size.height, s.size.width, Channels}
}

func (s *ImageBatch) Pix() []uint8 {
	return s.pix
}

// At returns a view of image i sharing memory with the batch.
func (s *ImageBatch) At(i int) *Image {
	imageBytes := s.size.Pixels() * Channels
	return NewImageFromPix(s.size, s.pix[i*imageBytes:(i+1)*imageBytes:(i+1)*imageBytes])
}

// FloatBatch is a contiguous (N, height, width, 3) float32 tensor.
type FloatBatch struct {
	data  []float32
	size  Size
	count int
}

func NewFloatBatch(size Size, count int) *FloatBatch {
	return &FloatBatch{
		data:  make([]float32, count*size.Pixels()*Channels),
		size:  size,
		count: count,
	}
}

func NewFloatBatchFromData(size Size, data []float32) *FloatBatch {
	count := 0
	if imageValues := size.Pixels() * Channels; imageValues > 0 {
		count = len(data) / imageValues
	}
	return &FloatBatch{
		data:  data,
		size:  size,
		count: count,
	}
}

func (s *FloatBatch) Len() int {
	return s.count
}

func (s *FloatBatch) ImageSize() Size {
	return s.size
}

func (s *FloatBatch) Shape() []int {
	return []int{s.count, s.size.height, s.size.width, Channels}
}

func (s *FloatBatch) Data() []float32 {
	return s.data
}

// ImageData returns the values of image i sharing memory with the batch.
func (s *FloatBatch) ImageData(i int) []float32 {
	imageValues := s.size.Pixels() * Channels
	return s.data[i*imageValues : (i+1)*imageValues]
}
