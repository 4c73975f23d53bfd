package pipeline

import (
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"os"
	"path/filepath"
	"sort"
	"time"
	"vincit.fi/image-dataset/backend"
	"vincit.fi/image-dataset/backend/archive"
	"vincit.fi/image-dataset/backend/dataset"
	"vincit.fi/image-dataset/backend/label"
	"vincit.fi/image-dataset/backend/onehot"
	"vincit.fi/image-dataset/common/logger"
	"vincit.fi/image-dataset/common/util"
)

type Result struct {
	FullArchive  string
	SplitArchive string
	Manifest     string
	Samples      int
	Train        int
	Valid        int
	Classes      []string
	RunId        string
}

// Run prepares the dataset: images are listed, normalized and saved to the full archive,
// which is then split, one-hot encoded and saved to the split archive with a manifest.
func Run(params *util.Params, services *backend.Services) (*Result, error) {
	startTime := time.Now()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	options := archive.Options{Compress: params.GetCompress()}

	files, err := label.ListLabeledFiles(services.Fs, params.GetInputDir())
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no images found in '%s'", params.GetInputDir())
	}
	logDistribution(label.Distribution(files))

	paths := label.Paths(files)
	images, err := services.Processor.ProcessImages(paths)
	if err != nil {
		return nil, err
	}
	logger.Info.Printf("Image tensor shape %v", images.Shape())

	fullRunId, err := dataset.SaveFull(params.GetFullArchive(), images, label.Labels(files), paths, options)
	if err != nil {
		return nil, err
	}
	logArchiveSize(params.GetFullArchive())

	outputSize := services.Normalizer.OutputSize()
	split, err := dataset.LoadAndSplit(params.GetFullArchive(), dataset.SplitOptions{
		TestFraction: params.GetTestFraction(),
		Seed:         params.GetSeed(),
		ExpectedSize: &outputSize,
	})
	if err != nil {
		return nil, err
	}

	numClasses := params.GetNumClasses()
	if numClasses < split.Encoder.NumClasses() {
		return nil, errors.Errorf("%d classes configured but the labels contain %d classes: %v",
			numClasses, split.Encoder.NumClasses(), split.Encoder.Classes())
	} else if numClasses > split.Encoder.NumClasses() {
		logger.Warn.Printf("%d classes configured, labels contain only %d", numClasses, split.Encoder.NumClasses())
	}

	yTrain, err := onehot.ToOneHot(split.YTrain, numClasses)
	if err != nil {
		return nil, errors.WithMessage(err, "train labels")
	}
	yTest, err := onehot.ToOneHot(split.YTest, numClasses)
	if err != nil {
		return nil, errors.WithMessage(err, "validation labels")
	}
	logger.Info.Printf("Train %v / %v, validation %v / %v",
		split.XTrain.Shape(), dims(yTrain.Dims()), split.XTest.Shape(), dims(yTest.Dims()))

	if _, err := dataset.SaveSplit(params.GetSplitArchive(), split, yTrain, yTest, options); err != nil {
		return nil, err
	}
	logArchiveSize(params.GetSplitArchive())

	manifestDir := params.GetManifestDir()
	if manifestDir == "" {
		manifestDir = filepath.Dir(params.GetSplitArchive())
	}
	manifest := dataset.NewManifest(split, numClasses, params.GetFullArchive(), params.GetSplitArchive(),
		params.GetSeed(), fullRunId.String())
	manifestPath, err := dataset.SaveManifest(services.Fs, manifest, manifestDir)
	if err != nil {
		return nil, err
	}
	if err := checkManifest(services, manifestPath, split, yTest); err != nil {
		return nil, err
	}

	logger.Info.Printf("Dataset prepared in %s", time.Since(startTime))
	return &Result{
		FullArchive:  params.GetFullArchive(),
		SplitArchive: params.GetSplitArchive(),
		Manifest:     manifestPath,
		Samples:      images.Len(),
		Train:        split.XTrain.Len(),
		Valid:        split.XTest.Len(),
		Classes:      split.Encoder.Classes(),
		RunId:        fullRunId.String(),
	}, nil
}

// checkManifest reads the written manifest back and decodes the validation one-hot rows
// with its class names. They must match the labels the split was made from.
func checkManifest(services *backend.Services, path string, split *dataset.Split, yTest mat.Matrix) error {
	manifest, err := dataset.LoadManifest(services.Fs, path)
	if err != nil {
		return err
	}
	logger.Info.Printf("Manifest '%s': %d classes %v, %d train and %d validation samples",
		path, manifest.NumClasses, manifest.Names, manifest.Train, manifest.Valid)

	encoder, err := dataset.NewLabelEncoderFromClasses(manifest.Names)
	if err != nil {
		return errors.WithMessagef(err, "manifest '%s'", path)
	}
	decoded, err := encoder.InverseTransform(onehot.Classes(yTest))
	if err != nil {
		return errors.WithMessagef(err, "manifest '%s'", path)
	}
	expected, err := split.Encoder.InverseTransform(split.YTest)
	if err != nil {
		return err
	}
	for i := range expected {
		if decoded[i] != expected[i] {
			return errors.Errorf("manifest '%s' decodes validation sample %d as '%s', expected '%s'",
				path, i, decoded[i], expected[i])
		}
	}
	return nil
}

func logDistribution(distribution map[string]int) {
	classes := make([]string, 0, len(distribution))
	for class := range distribution {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	logger.Info.Printf("Found %d classes", len(classes))
	for _, class := range classes {
		logger.Info.Printf(" - %s: %d images", class, distribution[class])
	}
}

func logArchiveSize(path string) {
	if info, err := os.Stat(path); err != nil {
		logger.Warn.Printf("Could not read size of '%s': %s", path, err)
	} else {
		logger.Info.Printf("Archive '%s' is %s", path, humanize.Bytes(uint64(info.Size())))
	}
}

func dims(rows int, columns int) []int {
	return []int{rows, columns}
}
