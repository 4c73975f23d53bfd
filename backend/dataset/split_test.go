package dataset

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"path/filepath"
	"sort"
	"testing"
	"vincit.fi/image-dataset/api/apitype"
	"vincit.fi/image-dataset/backend/archive"
)

var flowerNames = []string{"tulip", "daisy", "rose"}

// indexedBatch creates count images where every pixel of image i has value i.
func indexedBatch(t *testing.T, size apitype.Size, count int) (*apitype.ImageBatch, []string) {
	batch := apitype.NewImageBatch(size, count)
	labels := make([]string, count)
	for i := 0; i < count; i++ {
		img := apitype.NewImage(size)
		for j := range img.Pix() {
			img.Pix()[j] = uint8(i)
		}
		require.Nil(t, batch.Append("", img))
		labels[i] = flowerNames[i%len(flowerNames)]
	}
	return batch, labels
}

func saveIndexedArchive(t *testing.T, count int) string {
	path := filepath.Join(t.TempDir(), "flowers.db")
	batch, labels := indexedBatch(t, apitype.SizeOf(3, 2), count)
	_, err := SaveFull(path, batch, labels, nil, archive.Options{})
	require.Nil(t, err)
	return path
}

func TestLoadAndSplit(t *testing.T) {
	t.Run("Split arithmetic", func(t *testing.T) {
		a := require.New(t)
		path := saveIndexedArchive(t, 100)

		split, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25, Seed: 1337})

		a.Nil(err)
		a.Equal(75, split.XTrain.Len())
		a.Equal(25, split.XTest.Len())
		a.Len(split.YTrain, 75)
		a.Len(split.YTest, 25)
		a.Equal([]int{75, 2, 3, 3}, split.XTrain.Shape())
		a.Equal(apitype.SizeOf(3, 2), split.ImageSize)
		a.Equal(flowerNames[1:], split.Encoder.Classes()[:2])
	})

	t.Run("Partition covers every sample once", func(t *testing.T) {
		a := require.New(t)
		path := saveIndexedArchive(t, 37)

		split, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25, Seed: 3})

		a.Nil(err)
		a.Equal(10, split.XTest.Len())
		indices := append(append([]int{}, split.TrainIndices...), split.TestIndices...)
		sort.Ints(indices)
		for i, index := range indices {
			a.Equal(i, index)
		}
	})

	t.Run("Images and labels stay paired", func(t *testing.T) {
		a := require.New(t)
		path := saveIndexedArchive(t, 60)

		split, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25, Seed: 42})
		a.Nil(err)

		check := func(batch *apitype.FloatBatch, encoded []int, indices []int) {
			labels, err := split.Encoder.InverseTransform(encoded)
			a.Nil(err)
			for k := range indices {
				value := int(math.Round(float64(batch.ImageData(k)[0]) * 255))
				a.Equal(indices[k], value)
				a.Equal(flowerNames[value%len(flowerNames)], labels[k])
			}
		}
		check(split.XTrain, split.YTrain, split.TrainIndices)
		check(split.XTest, split.YTest, split.TestIndices)
	})

	t.Run("Deterministic by seed", func(t *testing.T) {
		a := require.New(t)
		path := saveIndexedArchive(t, 50)

		first, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25, Seed: 1337})
		a.Nil(err)
		second, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25, Seed: 1337})
		a.Nil(err)
		other, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25, Seed: 7})
		a.Nil(err)

		a.Equal(first.TestIndices, second.TestIndices)
		a.Equal(first.XTrain.Data(), second.XTrain.Data())
		a.Equal(first.YTest, second.YTest)
		a.NotEqual(first.TestIndices, other.TestIndices)
	})

	t.Run("Pixels are rescaled", func(t *testing.T) {
		a := require.New(t)
		path := filepath.Join(t.TempDir(), "white.db")
		batch := apitype.NewImageBatch(apitype.SizeOf(2, 2), 4)
		for i := 0; i < 4; i++ {
			img := apitype.NewImage(apitype.SizeOf(2, 2))
			for j := range img.Pix() {
				img.Pix()[j] = uint8(j * 85 % 256)
			}
			img.SetRGB(1, 1, 255, 255, 255)
			a.Nil(batch.Append("", img))
		}
		_, err := SaveFull(path, batch, []string{"a", "b", "a", "b"}, nil, archive.Options{})
		a.Nil(err)

		split, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25, Seed: 1})

		a.Nil(err)
		for _, value := range append(split.XTrain.Data(), split.XTest.Data()...) {
			a.GreaterOrEqual(value, float32(0))
			a.LessOrEqual(value, float32(1))
		}
		last := split.XTest.ImageData(0)
		a.Equal(float32(1), last[len(last)-1])
	})
}

func TestLoadAndSplit_StoredArchives(t *testing.T) {
	t.Run("Archive written by SaveFull opens", func(t *testing.T) {
		a := require.New(t)
		path := saveIndexedArchive(t, 8)

		stored, err := archive.Open(path)
		a.Nil(err)
		names, err := stored.Names()
		a.Nil(err)
		a.Equal([]string{ImagesArray, LabelsArray}, names)
		stored.Close()

		split, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25, Seed: 1})
		a.Nil(err)
		a.Equal(6, split.XTrain.Len())
		a.Equal(2, split.XTest.Len())
	})

	t.Run("Integer labels", func(t *testing.T) {
		a := require.New(t)
		path := filepath.Join(t.TempDir(), "digits.db")
		output, err := archive.Create(path, archive.Options{})
		a.Nil(err)
		pix := make([]uint8, 6*3)
		for i := range pix {
			pix[i] = uint8(i / 3)
		}
		images, err := archive.NewUint8Array(ImagesArray, []int{6, 1, 1, 3}, pix)
		a.Nil(err)
		labels, err := archive.NewInt32Array(LabelsArray, []int{6}, []int32{10, 2, 10, 2, 7, 7})
		a.Nil(err)
		a.Nil(output.PutAll(images, labels))
		output.Close()

		split, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.5, Seed: 5})

		a.Nil(err)
		a.Equal([]string{"10", "2", "7"}, split.Encoder.Classes())
		decoded, err := split.Encoder.InverseTransform(split.YTest)
		a.Nil(err)
		expected := []string{"10", "2", "10", "2", "7", "7"}
		for i, index := range split.TestIndices {
			a.Equal(expected[index], decoded[i])
			a.Equal(float32(index)/255, split.XTest.ImageData(i)[0])
		}
	})
}

func TestLoadAndSplit_Errors(t *testing.T) {
	t.Run("Invalid fraction", func(t *testing.T) {
		a := assert.New(t)
		path := saveIndexedArchive(t, 10)

		_, err := LoadAndSplit(path, SplitOptions{TestFraction: 0})
		a.NotNil(err)
		_, err = LoadAndSplit(path, SplitOptions{TestFraction: 1})
		a.NotNil(err)
	})

	t.Run("Too few samples", func(t *testing.T) {
		a := assert.New(t)
		path := saveIndexedArchive(t, 1)

		_, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25})

		a.NotNil(err)
	})

	t.Run("Missing archive", func(t *testing.T) {
		a := assert.New(t)

		_, err := LoadAndSplit(filepath.Join(t.TempDir(), "missing.db"), SplitOptions{TestFraction: 0.25})

		var formatErr *apitype.ArchiveFormatError
		a.True(errors.As(err, &formatErr))
	})

	t.Run("Single array", func(t *testing.T) {
		a := require.New(t)
		path := filepath.Join(t.TempDir(), "single.db")
		output, err := archive.Create(path, archive.Options{})
		a.Nil(err)
		images, _ := archive.NewUint8Array(ImagesArray, []int{1, 1, 1, 3}, []uint8{1, 2, 3})
		a.Nil(output.Put(images))
		output.Close()

		_, err = LoadAndSplit(path, SplitOptions{TestFraction: 0.25})

		var formatErr *apitype.ArchiveFormatError
		a.True(errors.As(err, &formatErr))
		a.Equal(path, formatErr.Archive)
	})

	t.Run("Outer lengths differ", func(t *testing.T) {
		a := require.New(t)
		path := filepath.Join(t.TempDir(), "uneven.db")
		output, err := archive.Create(path, archive.Options{})
		a.Nil(err)
		images, _ := archive.NewUint8Array(ImagesArray, []int{2, 1, 1, 3}, make([]uint8, 6))
		labels, _ := archive.NewStringArray(LabelsArray, []string{"rose"})
		a.Nil(output.PutAll(images, labels))
		output.Close()

		_, err = LoadAndSplit(path, SplitOptions{TestFraction: 0.25})

		var formatErr *apitype.ArchiveFormatError
		a.True(errors.As(err, &formatErr))
		a.Equal(LabelsArray, formatErr.Key)
	})

	t.Run("Stored shape disagrees", func(t *testing.T) {
		a := require.New(t)
		path := saveIndexedArchive(t, 8)
		output, err := archive.Open(path)
		a.Nil(err)
		a.Nil(output.SetMeta(MetaImageShape, "[224,224,3]"))
		output.Close()

		_, err = LoadAndSplit(path, SplitOptions{TestFraction: 0.25})

		var shapeErr *apitype.ShapeMismatchError
		a.True(errors.As(err, &shapeErr))
		a.Equal(MetaImageShape, shapeErr.Source)
	})

	t.Run("Expected size disagrees", func(t *testing.T) {
		a := assert.New(t)
		path := saveIndexedArchive(t, 8)
		expected := apitype.SizeOf(224, 224)

		_, err := LoadAndSplit(path, SplitOptions{TestFraction: 0.25, ExpectedSize: &expected})

		var shapeErr *apitype.ShapeMismatchError
		a.True(errors.As(err, &shapeErr))
	})
}

func TestSplitIndices(t *testing.T) {
	a := require.New(t)

	train, test, err := splitIndices(10, 0.25, 1337)

	a.Nil(err)
	a.Len(test, 3)
	a.Len(train, 7)
}
