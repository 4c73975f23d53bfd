package pipeline

import (
	"errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
	"vincit.fi/image-dataset/api"
	"vincit.fi/image-dataset/api/apitype"
	"vincit.fi/image-dataset/backend"
	"vincit.fi/image-dataset/backend/archive"
	"vincit.fi/image-dataset/backend/dataset"
	"vincit.fi/image-dataset/backend/onehot"
	"vincit.fi/image-dataset/common/util"
)

func writeJpeg(t *testing.T, path string, width int, height int, value uint8) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: value, G: 255 - value, B: value / 2, A: 255})
		}
	}
	file, err := os.Create(path)
	require.Nil(t, err)
	defer file.Close()
	require.Nil(t, jpeg.Encode(file, img, &jpeg.Options{Quality: 90}))
}

// createImageDir writes 12 images of three classes with varying aspect ratios.
func createImageDir(t *testing.T) string {
	dir := filepath.Join(t.TempDir(), "imgs_jpgs")
	require.Nil(t, os.MkdirAll(dir, 0755))
	sizes := [][]int{{40, 30}, {30, 40}, {25, 25}, {64, 20}}
	for i, class := range []string{"daisy", "lily", "rose"} {
		for j, size := range sizes {
			name := filepath.Join(dir, class+string(rune('1'+j))+".jpg")
			writeJpeg(t, name, size[0], size[1], uint8(i*80+j))
		}
	}
	return dir
}

func parseParams(t *testing.T, args ...string) (*util.Params, string) {
	output := t.TempDir()
	args = append([]string{
		"-input", createImageDir(t),
		"-full", filepath.Join(output, "flowers.db"),
		"-split", filepath.Join(output, "validation.db"),
		"-resize", "32x32",
		"-crop", "28x28",
		"-classes", "3",
	}, args...)
	params, err := util.ParseParamsFrom(afero.NewMemMapFs(), args)
	require.Nil(t, err)
	return params, output
}

func initializeServices(t *testing.T, params *util.Params, brokers *backend.Brokers) *backend.Services {
	services, err := backend.InitializeServices(params, afero.NewOsFs(), brokers)
	require.Nil(t, err)
	return services
}

func TestRun(t *testing.T) {
	t.Run("Prepares both archives and the manifest", func(t *testing.T) {
		a := require.New(t)
		params, output := parseParams(t)

		result, err := Run(params, initializeServices(t, params, nil))

		a.Nil(err)
		a.Equal(12, result.Samples)
		a.Equal(9, result.Train)
		a.Equal(3, result.Valid)
		a.Equal([]string{"daisy", "lily", "rose"}, result.Classes)
		a.Equal(filepath.Join(output, dataset.ManifestFileName), result.Manifest)

		full, err := archive.Open(result.FullArchive)
		a.Nil(err)
		images, err := full.At(0)
		a.Nil(err)
		a.Equal([]int{12, 28, 28, 3}, images.Shape())
		full.Close()

		split, err := archive.Open(result.SplitArchive)
		a.Nil(err)
		defer split.Close()
		yTrain, err := split.Get(dataset.YTrainArray)
		a.Nil(err)
		a.Equal([]int{9, 3}, yTrain.Shape())

		manifest, err := dataset.LoadManifest(afero.NewOsFs(), result.Manifest)
		a.Nil(err)
		a.Equal(3, manifest.NumClasses)
		a.Equal(result.RunId, manifest.RunId)
	})

	t.Run("Same seed gives the same split", func(t *testing.T) {
		a := require.New(t)
		params, _ := parseParams(t, "-workers", "3", "-compress")
		_, err := Run(params, initializeServices(t, params, nil))
		a.Nil(err)
		first, err := dataset.LoadAndSplit(params.GetFullArchive(), dataset.SplitOptions{TestFraction: 0.25, Seed: params.GetSeed()})
		a.Nil(err)

		_, err = Run(params, initializeServices(t, params, nil))
		a.Nil(err)
		second, err := dataset.LoadAndSplit(params.GetFullArchive(), dataset.SplitOptions{TestFraction: 0.25, Seed: params.GetSeed()})
		a.Nil(err)

		a.Equal(first.TestIndices, second.TestIndices)
		a.Equal(first.XTest.Data(), second.XTest.Data())
	})

	t.Run("Publishes progress", func(t *testing.T) {
		a := require.New(t)
		params, _ := parseParams(t)
		brokers := backend.InitializeEventBrokers(100)
		var updates atomic.Int32
		a.Nil(brokers.Broker.Subscribe(api.ProcessStatusUpdated, func(command *api.UpdateProgressCommand) {
			updates.Add(1)
		}))

		_, err := Run(params, initializeServices(t, params, brokers))

		a.Nil(err)
		a.Eventually(func() bool { return updates.Load() == 12 }, time.Second, 10*time.Millisecond)
	})
}

func TestRun_Failures(t *testing.T) {
	t.Run("Too few classes", func(t *testing.T) {
		a := assert.New(t)
		params, _ := parseParams(t, "-classes", "2")

		_, err := Run(params, initializeServices(t, params, nil))

		a.NotNil(err)
	})

	t.Run("Broken image", func(t *testing.T) {
		a := require.New(t)
		params, _ := parseParams(t)
		broken := filepath.Join(params.GetInputDir(), "rose9.jpg")
		a.Nil(os.WriteFile(broken, []byte("not a jpeg"), 0644))

		_, err := Run(params, initializeServices(t, params, nil))

		var decodeErr *apitype.DecodeError
		a.True(errors.As(err, &decodeErr))
		a.Equal(broken, decodeErr.Path)
		a.NoFileExists(params.GetFullArchive())
	})

	t.Run("Empty directory", func(t *testing.T) {
		a := assert.New(t)
		dir := t.TempDir()
		params, err := util.ParseParamsFrom(afero.NewMemMapFs(), []string{
			"-input", dir, "-full", filepath.Join(dir, "a.db"), "-split", filepath.Join(dir, "b.db"),
		})
		a.Nil(err)

		_, err = Run(params, initializeServices(t, params, nil))

		a.NotNil(err)
	})
}

func TestCheckManifest(t *testing.T) {
	a := require.New(t)
	params, _ := parseParams(t)
	services := initializeServices(t, params, nil)
	result, err := Run(params, services)
	a.Nil(err)

	split, err := dataset.LoadAndSplit(result.FullArchive, dataset.SplitOptions{
		TestFraction: params.GetTestFraction(),
		Seed:         params.GetSeed(),
	})
	a.Nil(err)
	yTest, err := onehot.ToOneHot(split.YTest, params.GetNumClasses())
	a.Nil(err)

	t.Run("Written manifest decodes the validation labels", func(t *testing.T) {
		a := require.New(t)
		a.Nil(checkManifest(services, result.Manifest, split, yTest))
	})

	t.Run("Manifest with other class names", func(t *testing.T) {
		a := require.New(t)
		manifest, err := dataset.LoadManifest(services.Fs, result.Manifest)
		a.Nil(err)
		manifest.Names = []string{"aster", "begonia", "crocus"}
		path, err := dataset.SaveManifest(services.Fs, manifest, t.TempDir())
		a.Nil(err)

		err = checkManifest(services, path, split, yTest)

		a.NotNil(err)
		a.Contains(err.Error(), "validation sample 0")
	})

	t.Run("Missing manifest", func(t *testing.T) {
		a := require.New(t)
		err := checkManifest(services, filepath.Join(t.TempDir(), dataset.ManifestFileName), split, yTest)
		a.NotNil(err)
	})
}
