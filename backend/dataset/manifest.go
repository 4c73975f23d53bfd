package dataset

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
)

const ManifestFileName = "data.yaml"

// Manifest describes a prepared dataset for training code.
type Manifest struct {
	NumClasses int      `yaml:"nc"`
	Names      []string `yaml:"names"`
	ImageShape []int    `yaml:"image_shape"`
	Full       string   `yaml:"full"`
	Split      string   `yaml:"split"`
	Samples    int      `yaml:"samples"`
	Train      int      `yaml:"train"`
	Valid      int      `yaml:"valid"`
	Seed       int64    `yaml:"seed"`
	RunId      string   `yaml:"run_id"`
}

func NewManifest(split *Split, numClasses int, fullPath string, splitPath string, seed int64, runId string) *Manifest {
	return &Manifest{
		NumClasses: numClasses,
		Names:      split.Encoder.Classes(),
		ImageShape: imageShape(split.ImageSize),
		Full:       fullPath,
		Split:      splitPath,
		Samples:    split.XTrain.Len() + split.XTest.Len(),
		Train:      split.XTrain.Len(),
		Valid:      split.XTest.Len(),
		Seed:       seed,
		RunId:      runId,
	}
}

// SaveManifest writes the manifest as data.yaml into directory and returns the file path.
func SaveManifest(fs afero.Fs, manifest *Manifest, directory string) (string, error) {
	b, err := yaml.Marshal(manifest)
	if err != nil {
		return "", errors.Wrap(err, "could not encode manifest")
	}
	if err := fs.MkdirAll(directory, os.ModePerm); err != nil {
		return "", errors.Wrapf(err, "could not create directory '%s'", directory)
	}
	path := filepath.Join(directory, ManifestFileName)
	if err := afero.WriteFile(fs, path, b, 0644); err != nil {
		return "", errors.Wrapf(err, "could not write manifest '%s'", path)
	}
	return path, nil
}

func LoadManifest(fs afero.Fs, path string) (*Manifest, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read manifest '%s'", path)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(b, &manifest); err != nil {
		return nil, errors.Wrapf(err, "could not decode manifest '%s'", path)
	}
	return &manifest, nil
}
