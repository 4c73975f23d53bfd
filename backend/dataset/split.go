package dataset

import (
	"fmt"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"math"
	"math/rand"
	"strconv"
	"time"
	"vincit.fi/image-dataset/api/apitype"
	"vincit.fi/image-dataset/backend/archive"
	"vincit.fi/image-dataset/common/logger"
)

const DefaultTestFraction = 0.25

type SplitOptions struct {
	TestFraction float64
	Seed         int64
	// ExpectedSize is checked against the stored image size when set.
	ExpectedSize *apitype.Size
}

type Split struct {
	XTrain *apitype.FloatBatch
	XTest  *apitype.FloatBatch
	YTrain []int
	YTest  []int

	TrainIndices []int
	TestIndices  []int

	Encoder     *LabelEncoder
	ImageSize   apitype.Size
	SourceRunId string
}

// LoadAndSplit reads the images and labels stored in the archive at path, encodes the
// labels over the whole dataset and splits both with the same random partition.
// Pixel values are rescaled to [0, 1].
func LoadAndSplit(path string, options SplitOptions) (*Split, error) {
	startTime := time.Now()
	if options.TestFraction <= 0 || options.TestFraction >= 1 {
		return nil, errors.Errorf("test fraction must be between 0 and 1, got %g", options.TestFraction)
	}

	input, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	count, err := input.Len()
	if err != nil {
		return nil, err
	}
	if count < 2 {
		return nil, &apitype.ArchiveFormatError{
			Archive: path,
			Msg:     fmt.Sprintf("expected at least two arrays, found %d", count),
		}
	}

	images, err := input.At(0)
	if err != nil {
		return nil, err
	}
	labelArray, err := input.At(1)
	if err != nil {
		return nil, err
	}
	size, err := imageSizeOf(path, images)
	if err != nil {
		return nil, err
	}
	if labelArray.Len() != images.Len() {
		return nil, &apitype.ArchiveFormatError{
			Archive: path,
			Key:     labelArray.Name(),
			Msg:     fmt.Sprintf("%d labels for %d images", labelArray.Len(), images.Len()),
		}
	}
	if err := checkStoredShape(input, size); err != nil {
		return nil, err
	}
	if options.ExpectedSize != nil && *options.ExpectedSize != size {
		return nil, &apitype.ShapeMismatchError{Source: path, Expected: *options.ExpectedSize, Actual: size}
	}

	pix, err := images.Uint8()
	if err != nil {
		return nil, err
	}
	labels, err := labelStrings(labelArray)
	if err != nil {
		return nil, err
	}

	encoder := NewLabelEncoder()
	encoded, err := encoder.FitTransform(labels)
	if err != nil {
		return nil, errors.WithMessagef(err, "archive '%s'", path)
	}

	trainIndices, testIndices, err := splitIndices(len(labels), options.TestFraction, options.Seed)
	if err != nil {
		return nil, err
	}

	sourceRunId, _, err := input.Meta(MetaRunId)
	if err != nil {
		return nil, err
	}

	stored := apitype.NewImageBatchFromPix(size, pix)
	split := &Split{
		XTrain:       toFloatBatch(stored, trainIndices),
		XTest:        toFloatBatch(stored, testIndices),
		YTrain:       pick(encoded, trainIndices),
		YTest:        pick(encoded, testIndices),
		TrainIndices: trainIndices,
		TestIndices:  testIndices,
		Encoder:      encoder,
		ImageSize:    size,
		SourceRunId:  sourceRunId,
	}
	logger.Info.Printf("Split %d samples into %d train and %d test samples in %s",
		len(labels), len(trainIndices), len(testIndices), time.Since(startTime))
	return split, nil
}

func imageSizeOf(path string, images *archive.Array) (apitype.Size, error) {
	shape := images.Shape()
	if len(shape) != 4 || shape[3] != apitype.Channels {
		return apitype.Size{}, &apitype.ArchiveFormatError{
			Archive: path,
			Key:     images.Name(),
			Msg:     fmt.Sprintf("expected shape (N, height, width, %d), got %v", apitype.Channels, shape),
		}
	}
	return apitype.SizeOf(shape[2], shape[1]), nil
}

func checkStoredShape(input *archive.Archive, size apitype.Size) error {
	value, found, err := input.Meta(MetaImageShape)
	if err != nil {
		return err
	} else if !found {
		logger.Warn.Printf("Archive '%s' has no stored image shape", input.Path())
		return nil
	}

	var stored []int
	if err := json.Unmarshal([]byte(value), &stored); err != nil {
		return &apitype.ArchiveFormatError{Archive: input.Path(), Key: MetaImageShape, Err: err}
	}
	expected := imageShape(size)
	if len(stored) != len(expected) || stored[0] != expected[0] || stored[1] != expected[1] || stored[2] != expected[2] {
		return &apitype.ShapeMismatchError{Source: MetaImageShape, Expected: stored, Actual: expected}
	}
	return nil
}

// splitIndices holds out ceil(n * testFraction) samples. The test set is the head of a
// seeded permutation and the training set the rest of it.
func splitIndices(n int, testFraction float64, seed int64) ([]int, []int, error) {
	testCount := int(math.Ceil(float64(n) * testFraction))
	trainCount := n - testCount
	if testCount < 1 || trainCount < 1 {
		return nil, nil, errors.Errorf(
			"cannot split %d samples with test fraction %g into non-empty sets", n, testFraction)
	}

	permutation := rand.New(rand.NewSource(seed)).Perm(n)
	return permutation[testCount:], permutation[:testCount], nil
}

// labelStrings reads string labels as is and integer labels in their decimal form.
func labelStrings(labels *archive.Array) ([]string, error) {
	if labels.DType() != archive.DTypeInt32 {
		return labels.Strings()
	}
	values, err := labels.Int32()
	if err != nil {
		return nil, err
	}
	converted := make([]string, len(values))
	for i, value := range values {
		converted[i] = strconv.Itoa(int(value))
	}
	return converted, nil
}

func toFloatBatch(images *apitype.ImageBatch, indices []int) *apitype.FloatBatch {
	size := images.ImageSize()
	data := make([]float32, 0, len(indices)*size.Pixels()*apitype.Channels)
	for _, index := range indices {
		for _, value := range images.At(index).Pix() {
			data = append(data, float32(value)/255)
		}
	}
	return apitype.NewFloatBatchFromData(size, data)
}

func pick(values []int, indices []int) []int {
	picked := make([]int, len(indices))
	for i, index := range indices {
		picked[i] = values[index]
	}
	return picked
}
