package util

import (
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"vincit.fi/image-dataset/api/apitype"
)

func TestParseParamsFrom(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		a := require.New(t)

		sut, err := ParseParamsFrom(afero.NewMemMapFs(), []string{})

		a.Nil(err)
		a.Equal("../imgs_jpgs/", sut.GetInputDir())
		a.Equal("flowers_224.db", sut.GetFullArchive())
		a.Equal("validation_224.db", sut.GetSplitArchive())
		a.Equal(13, sut.GetNumClasses())
		a.Equal(apitype.SizeOf(256, 256), sut.GetResizeSize())
		a.Equal(apitype.SizeOf(224, 224), sut.GetCropSize())
		a.Equal(0.25, sut.GetTestFraction())
		a.Equal(int64(1337), sut.GetSeed())
		a.Equal(1, sut.GetWorkers())
		a.True(sut.GetExifCorrection())
		a.False(sut.GetCompress())
		a.Nil(sut.Validate())
	})

	t.Run("Flags", func(t *testing.T) {
		a := require.New(t)

		sut, err := ParseParamsFrom(afero.NewMemMapFs(), []string{
			"-resize", "128x96", "-crop", "112x80", "-seed", "7", "-workers", "4", "-compress", "photos/",
		})

		a.Nil(err)
		a.Equal(apitype.SizeOf(128, 96), sut.GetResizeSize())
		a.Equal(apitype.SizeOf(112, 80), sut.GetCropSize())
		a.Equal(int64(7), sut.GetSeed())
		a.Equal(4, sut.GetWorkers())
		a.True(sut.GetCompress())
		a.Equal("photos/", sut.GetInputDir())
	})

	t.Run("Invalid size flag", func(t *testing.T) {
		_, err := ParseParamsFrom(afero.NewMemMapFs(), []string{"-resize", "big"})
		assert.NotNil(t, err)
	})

	t.Run("Config file is overridden by flags", func(t *testing.T) {
		a := require.New(t)
		fs := afero.NewMemMapFs()
		a.Nil(afero.WriteFile(fs, "config.yaml", []byte(`
input: /data/flowers
classes: 5
crop: 200x200
test_fraction: 0.2
seed: 99
exif_correction: false
`), 0644))

		sut, err := ParseParamsFrom(fs, []string{"-config", "config.yaml", "-seed", "1"})

		a.Nil(err)
		a.Equal("/data/flowers", sut.GetInputDir())
		a.Equal(5, sut.GetNumClasses())
		a.Equal(apitype.SizeOf(200, 200), sut.GetCropSize())
		a.Equal(apitype.SizeOf(256, 256), sut.GetResizeSize())
		a.Equal(0.2, sut.GetTestFraction())
		a.Equal(int64(1), sut.GetSeed())
		a.False(sut.GetExifCorrection())
	})

	t.Run("Missing config file", func(t *testing.T) {
		_, err := ParseParamsFrom(afero.NewMemMapFs(), []string{"-config", "missing.yaml"})
		assert.NotNil(t, err)
	})

	t.Run("Invalid config size", func(t *testing.T) {
		a := require.New(t)
		fs := afero.NewMemMapFs()
		a.Nil(afero.WriteFile(fs, "config.yaml", []byte("resize: 0x10\n"), 0644))

		_, err := ParseParamsFrom(fs, []string{"-config", "config.yaml"})

		a.NotNil(err)
	})
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "Crop larger than resize", args: []string{"-resize", "100x100", "-crop", "120x90"}},
		{name: "Fraction zero", args: []string{"-testFraction", "0"}},
		{name: "Fraction one", args: []string{"-testFraction", "1"}},
		{name: "No classes", args: []string{"-classes", "0"}},
		{name: "No workers", args: []string{"-workers", "0"}},
		{name: "Same archive", args: []string{"-full", "a.db", "-split", "a.db"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := require.New(t)
			sut, err := ParseParamsFrom(afero.NewMemMapFs(), tt.args)
			a.Nil(err)

			a.NotNil(sut.Validate())
		})
	}
}
