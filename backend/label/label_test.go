package label

import (
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func TestExtractLabel(t *testing.T) {
	tests := []struct {
		fileName string
		label    string
	}{
		{fileName: "rose12_.jpg", label: "rose"},
		{fileName: "sunflower3_.jpg", label: "sunflower"},
		{fileName: "daisy_.jpg", label: "daisy"},
		{fileName: "black_eyed_susan104_.jpg", label: "black_eyed_susan"},
		{fileName: "bird1of2paradise_.jpg", label: "birdofparadise"},
		// Trailing characters from the suffix set are trimmed too
		{fileName: "tulip2_.jpg", label: "tuli"},
		{fileName: "poppy7_.jpg", label: "poppy"},
		// Suffix not at the tail
		{fileName: "lily4_.png", label: "lily_.pn"},
		{fileName: "Orchid9.JPG", label: "Orchid.JPG"},
		{fileName: "iris", label: "iris"},
		{fileName: "123_.jpg", label: ""},
	}
	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			assert.Equal(t, tt.label, ExtractLabel(tt.fileName))
		})
	}
}

func TestListLabeledFiles(t *testing.T) {
	t.Run("Skips hidden files and directories", func(t *testing.T) {
		a := require.New(t)
		fs := afero.NewMemMapFs()
		a.Nil(afero.WriteFile(fs, "imgs/rose2_.jpg", []byte("x"), 0644))
		a.Nil(afero.WriteFile(fs, "imgs/daisy1_.jpg", []byte("x"), 0644))
		a.Nil(afero.WriteFile(fs, "imgs/rose1_.jpg", []byte("x"), 0644))
		a.Nil(afero.WriteFile(fs, "imgs/.DS_Store", []byte("x"), 0644))
		a.Nil(afero.WriteFile(fs, "imgs/nested/orchid1_.jpg", []byte("x"), 0644))

		files, err := ListLabeledFiles(fs, "imgs")

		a.Nil(err)
		a.Equal([]string{
			filepath.Join("imgs", "daisy1_.jpg"),
			filepath.Join("imgs", "rose1_.jpg"),
			filepath.Join("imgs", "rose2_.jpg"),
		}, Paths(files))
		a.Equal([]string{"daisy", "rose", "rose"}, Labels(files))
		a.Equal(map[string]int{"daisy": 1, "rose": 2}, Distribution(files))
	})

	t.Run("Empty directory", func(t *testing.T) {
		a := require.New(t)
		fs := afero.NewMemMapFs()
		a.Nil(fs.MkdirAll("imgs", 0755))

		files, err := ListLabeledFiles(fs, "imgs")

		a.Nil(err)
		a.Empty(files)
	})

	t.Run("Missing directory", func(t *testing.T) {
		a := assert.New(t)
		_, err := ListLabeledFiles(afero.NewMemMapFs(), "imgs")
		a.NotNil(err)
	})

	t.Run("Empty label", func(t *testing.T) {
		a := require.New(t)
		fs := afero.NewMemMapFs()
		a.Nil(afero.WriteFile(fs, "imgs/42_.jpg", []byte("x"), 0644))

		_, err := ListLabeledFiles(fs, "imgs")

		a.NotNil(err)
		a.Contains(err.Error(), "42_.jpg")
	})
}
