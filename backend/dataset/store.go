package dataset

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"time"
	"vincit.fi/image-dataset/api/apitype"
	"vincit.fi/image-dataset/backend/archive"
	"vincit.fi/image-dataset/backend/onehot"
	"vincit.fi/image-dataset/common/logger"
)

const (
	ImagesArray = "images"
	LabelsArray = "labels"
	PathsArray  = "paths"

	XTrainArray = "x_train"
	XTestArray  = "x_test"
	YTrainArray = "y_train"
	YTestArray  = "y_test"
)

const (
	MetaImageShape  = "image_shape"
	MetaRunId       = "run_id"
	MetaSourceRunId = "source_run_id"
	MetaCreated     = "created"
	MetaClasses     = "classes"
)

// SaveFull writes the normalized images and their labels to a new archive at path.
// Images are stored first and labels second. Paths are stored third when given.
func SaveFull(path string, batch *apitype.ImageBatch, labels []string, paths []string, options archive.Options) (uuid.UUID, error) {
	startTime := time.Now()
	if len(labels) != batch.Len() {
		return uuid.Nil, &apitype.ShapeMismatchError{Source: LabelsArray, Expected: batch.Len(), Actual: len(labels)}
	}
	if paths != nil && len(paths) != batch.Len() {
		return uuid.Nil, &apitype.ShapeMismatchError{Source: PathsArray, Expected: batch.Len(), Actual: len(paths)}
	}

	images, err := archive.NewUint8Array(ImagesArray, batch.Shape(), batch.Pix())
	if err != nil {
		return uuid.Nil, err
	}
	labelArray, err := archive.NewStringArray(LabelsArray, labels)
	if err != nil {
		return uuid.Nil, err
	}
	arrays := []*archive.Array{images, labelArray}
	if paths != nil {
		pathArray, err := archive.NewStringArray(PathsArray, paths)
		if err != nil {
			return uuid.Nil, err
		}
		arrays = append(arrays, pathArray)
	}

	runId := uuid.New()
	if err := writeArchive(path, options, arrays, map[string]interface{}{
		MetaImageShape: imageShape(batch.ImageSize()),
		MetaRunId:      runId.String(),
	}); err != nil {
		return uuid.Nil, err
	}

	logger.Info.Printf("Saved %d images to '%s' in %s", batch.Len(), path, time.Since(startTime))
	return runId, nil
}

// SaveSplit writes the split dataset to a new archive at path. The positional order is
// train images, test images, train labels and test labels.
func SaveSplit(path string, split *Split, yTrain *mat.Dense, yTest *mat.Dense, options archive.Options) (uuid.UUID, error) {
	startTime := time.Now()
	if rows, _ := yTrain.Dims(); rows != split.XTrain.Len() {
		return uuid.Nil, &apitype.ShapeMismatchError{Source: YTrainArray, Expected: split.XTrain.Len(), Actual: rows}
	}
	if rows, _ := yTest.Dims(); rows != split.XTest.Len() {
		return uuid.Nil, &apitype.ShapeMismatchError{Source: YTestArray, Expected: split.XTest.Len(), Actual: rows}
	}

	xTrain, err := archive.NewFloat32Array(XTrainArray, split.XTrain.Shape(), split.XTrain.Data())
	if err != nil {
		return uuid.Nil, err
	}
	xTest, err := archive.NewFloat32Array(XTestArray, split.XTest.Shape(), split.XTest.Data())
	if err != nil {
		return uuid.Nil, err
	}
	yTrainArray, err := oneHotArray(YTrainArray, yTrain)
	if err != nil {
		return uuid.Nil, err
	}
	yTestArray, err := oneHotArray(YTestArray, yTest)
	if err != nil {
		return uuid.Nil, err
	}

	runId := uuid.New()
	meta := map[string]interface{}{
		MetaImageShape: imageShape(split.ImageSize),
		MetaRunId:      runId.String(),
		MetaClasses:    split.Encoder.Classes(),
	}
	if split.SourceRunId != "" {
		meta[MetaSourceRunId] = split.SourceRunId
	}
	if err := writeArchive(path, options, []*archive.Array{xTrain, xTest, yTrainArray, yTestArray}, meta); err != nil {
		return uuid.Nil, err
	}

	logger.Info.Printf("Saved split dataset to '%s' in %s", path, time.Since(startTime))
	return runId, nil
}

func oneHotArray(name string, matrix *mat.Dense) (*archive.Array, error) {
	rows, columns := matrix.Dims()
	return archive.NewFloat32Array(name, []int{rows, columns}, onehot.Float32Rows(matrix))
}

func writeArchive(path string, options archive.Options, arrays []*archive.Array, meta map[string]interface{}) error {
	output, err := archive.Create(path, options)
	if err != nil {
		return err
	}
	defer output.Close()

	if err := output.PutAll(arrays...); err != nil {
		return err
	}
	meta[MetaCreated] = time.Now().UTC().Format(time.RFC3339)
	for key, value := range meta {
		var encoded string
		if text, ok := value.(string); ok {
			encoded = text
		} else if bytes, err := json.Marshal(value); err != nil {
			return errors.Wrapf(err, "could not encode meta data '%s'", key)
		} else {
			encoded = string(bytes)
		}
		if err := output.SetMeta(key, encoded); err != nil {
			return err
		}
	}
	return nil
}

func imageShape(size apitype.Size) []int {
	return []int{size.GetHeight(), size.GetWidth(), apitype.Channels}
}
