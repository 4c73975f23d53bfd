package util

import (
	"flag"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
	"os"
	"vincit.fi/image-dataset/api/apitype"
)

const (
	DefaultInputDir     = "../imgs_jpgs/"
	DefaultFullArchive  = "flowers_224.db"
	DefaultSplitArchive = "validation_224.db"
	DefaultNumClasses   = 13
	DefaultTestFraction = 0.25
	DefaultSeed         = 1337
)

var (
	DefaultResizeSize = apitype.SizeOf(256, 256)
	DefaultCropSize   = apitype.SizeOf(224, 224)
)

type Params struct {
	inputDir       string
	fullArchive    string
	splitArchive   string
	manifestDir    string
	numClasses     int
	resize         apitype.Size
	crop           apitype.Size
	cropMode       string
	resampler      string
	testFraction   float64
	seed           int64
	workers        int
	compress       bool
	exifCorrection bool
	logLevel       string
	progress       bool
}

// fileConfig is the YAML form of the parameters. Missing keys keep their defaults.
type fileConfig struct {
	InputDir       *string  `yaml:"input"`
	FullArchive    *string  `yaml:"full_archive"`
	SplitArchive   *string  `yaml:"split_archive"`
	ManifestDir    *string  `yaml:"manifest_dir"`
	NumClasses     *int     `yaml:"classes"`
	Resize         *string  `yaml:"resize"`
	Crop           *string  `yaml:"crop"`
	CropMode       *string  `yaml:"crop_mode"`
	Resampler      *string  `yaml:"resampler"`
	TestFraction   *float64 `yaml:"test_fraction"`
	Seed           *int64   `yaml:"seed"`
	Workers        *int     `yaml:"workers"`
	Compress       *bool    `yaml:"compress"`
	ExifCorrection *bool    `yaml:"exif_correction"`
	LogLevel       *string  `yaml:"log_level"`
	Progress       *bool    `yaml:"progress"`
}

func DefaultParams() *Params {
	return &Params{
		inputDir:       DefaultInputDir,
		fullArchive:    DefaultFullArchive,
		splitArchive:   DefaultSplitArchive,
		numClasses:     DefaultNumClasses,
		resize:         DefaultResizeSize,
		crop:           DefaultCropSize,
		cropMode:       "centered",
		resampler:      "linear",
		testFraction:   DefaultTestFraction,
		seed:           DefaultSeed,
		workers:        1,
		exifCorrection: true,
		logLevel:       "INFO",
		progress:       true,
	}
}

func ParseParams() (*Params, error) {
	return ParseParamsFrom(afero.NewOsFs(), os.Args[1:])
}

// ParseParamsFrom parses command line arguments. Values from the optional config file
// are applied first and explicitly given flags override them.
func ParseParamsFrom(fs afero.Fs, args []string) (*Params, error) {
	defaults := DefaultParams()
	flags := flag.NewFlagSet("image-dataset", flag.ContinueOnError)

	configFile := flags.String("config", "", "YAML file with parameters. Flags given on the command line override it")
	inputDir := flags.String("input", defaults.inputDir, "Directory of label-bearing JPEG images. Can also be given as the first argument")
	fullArchive := flags.String("full", defaults.fullArchive, "Archive for the full normalized dataset")
	splitArchive := flags.String("split", defaults.splitArchive, "Archive for the train/validation split")
	manifestDir := flags.String("manifest", defaults.manifestDir, "Directory for data.yaml. Defaults to the directory of the split archive")
	numClasses := flags.Int("classes", defaults.numClasses, "Number of classes in the one-hot encoding. Must be at least the number of distinct labels")
	resize := defaults.resize
	flags.TextVar(&resize, "resize", defaults.resize, "Size images are fitted and padded to, WIDTHxHEIGHT")
	crop := defaults.crop
	flags.TextVar(&crop, "crop", defaults.crop, "Size of the center crop, WIDTHxHEIGHT")
	cropMode := flags.String("cropMode", defaults.cropMode, "Center crop mode: centered or legacy")
	resampler := flags.String("resampler", defaults.resampler, "Resampling filter for resizing")
	testFraction := flags.Float64("testFraction", defaults.testFraction, "Fraction of samples held out for validation")
	seed := flags.Int64("seed", defaults.seed, "Seed of the train/validation split")
	workers := flags.Int("workers", defaults.workers, "Number of images processed in parallel")
	compress := flags.Bool("compress", defaults.compress, "Compress archive arrays with xz")
	exifCorrection := flags.Bool("exif", defaults.exifCorrection, "Rotate images by their EXIF orientation")
	logLevel := flags.String("logLevel", defaults.logLevel, "Log level: ERROR, WARN, INFO, DEBUG, Trace")
	progress := flags.Bool("progress", defaults.progress, "Show progress bar")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	params := defaults
	if *configFile != "" {
		if err := params.applyConfigFile(fs, *configFile); err != nil {
			return nil, err
		}
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			params.inputDir = *inputDir
		case "full":
			params.fullArchive = *fullArchive
		case "split":
			params.splitArchive = *splitArchive
		case "manifest":
			params.manifestDir = *manifestDir
		case "classes":
			params.numClasses = *numClasses
		case "resize":
			params.resize = resize
		case "crop":
			params.crop = crop
		case "cropMode":
			params.cropMode = *cropMode
		case "resampler":
			params.resampler = *resampler
		case "testFraction":
			params.testFraction = *testFraction
		case "seed":
			params.seed = *seed
		case "workers":
			params.workers = *workers
		case "compress":
			params.compress = *compress
		case "exif":
			params.exifCorrection = *exifCorrection
		case "logLevel":
			params.logLevel = *logLevel
		case "progress":
			params.progress = *progress
		}
	})
	if flags.NArg() > 0 {
		params.inputDir = flags.Arg(0)
	}

	return params, nil
}

func (s *Params) applyConfigFile(fs afero.Fs, path string) error {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "could not read config file '%s'", path)
	}
	var config fileConfig
	if err := yaml.Unmarshal(content, &config); err != nil {
		return errors.Wrapf(err, "could not parse config file '%s'", path)
	}

	setString(&s.inputDir, config.InputDir)
	setString(&s.fullArchive, config.FullArchive)
	setString(&s.splitArchive, config.SplitArchive)
	setString(&s.manifestDir, config.ManifestDir)
	setString(&s.cropMode, config.CropMode)
	setString(&s.resampler, config.Resampler)
	setString(&s.logLevel, config.LogLevel)
	if config.NumClasses != nil {
		s.numClasses = *config.NumClasses
	}
	if config.TestFraction != nil {
		s.testFraction = *config.TestFraction
	}
	if config.Seed != nil {
		s.seed = *config.Seed
	}
	if config.Workers != nil {
		s.workers = *config.Workers
	}
	if config.Compress != nil {
		s.compress = *config.Compress
	}
	if config.ExifCorrection != nil {
		s.exifCorrection = *config.ExifCorrection
	}
	if config.Progress != nil {
		s.progress = *config.Progress
	}
	if config.Resize != nil {
		if s.resize, err = apitype.ParseSize(*config.Resize); err != nil {
			return errors.WithMessagef(err, "config file '%s', resize", path)
		}
	}
	if config.Crop != nil {
		if s.crop, err = apitype.ParseSize(*config.Crop); err != nil {
			return errors.WithMessagef(err, "config file '%s', crop", path)
		}
	}
	return nil
}

func setString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}

// Validate checks values that do not depend on the data.
func (s *Params) Validate() error {
	if s.inputDir == "" {
		return errors.New("input directory is not set")
	}
	if s.fullArchive == "" || s.splitArchive == "" {
		return errors.New("archive paths must be set")
	}
	if s.fullArchive == s.splitArchive {
		return errors.Errorf("full and split archive must differ, both are '%s'", s.fullArchive)
	}
	if s.numClasses <= 0 {
		return errors.Errorf("number of classes must be positive, got %d", s.numClasses)
	}
	if !s.resize.IsValid() || !s.crop.IsValid() {
		return errors.Errorf("sizes must be positive, got resize %s and crop %s", s.resize, s.crop)
	}
	if !s.resize.Fits(s.crop) {
		return errors.Errorf("crop %s does not fit in resize %s", s.crop, s.resize)
	}
	if s.testFraction <= 0 || s.testFraction >= 1 {
		return errors.Errorf("test fraction must be between 0 and 1, got %g", s.testFraction)
	}
	if s.workers < 1 {
		return errors.Errorf("number of workers must be at least 1, got %d", s.workers)
	}
	return nil
}

func (s *Params) GetInputDir() string {
	return s.inputDir
}

func (s *Params) GetFullArchive() string {
	return s.fullArchive
}

func (s *Params) GetSplitArchive() string {
	return s.splitArchive
}

func (s *Params) GetManifestDir() string {
	return s.manifestDir
}

func (s *Params) GetNumClasses() int {
	return s.numClasses
}

func (s *Params) GetResizeSize() apitype.Size {
	return s.resize
}

func (s *Params) GetCropSize() apitype.Size {
	return s.crop
}

func (s *Params) GetCropMode() string {
	return s.cropMode
}

func (s *Params) GetResampler() string {
	return s.resampler
}

func (s *Params) GetTestFraction() float64 {
	return s.testFraction
}

func (s *Params) GetSeed() int64 {
	return s.seed
}

func (s *Params) GetWorkers() int {
	return s.workers
}

func (s *Params) GetCompress() bool {
	return s.compress
}

func (s *Params) GetExifCorrection() bool {
	return s.exifCorrection
}

func (s *Params) GetLogLevel() string {
	return s.logLevel
}

func (s *Params) GetShowProgress() bool {
	return s.progress
}
