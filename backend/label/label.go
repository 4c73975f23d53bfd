package label

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"vincit.fi/image-dataset/common/logger"
)

// Trailing characters in this set are trimmed one by one, so "tulip_.jpg" becomes "tuli".
const suffixCutset = "_.jpg"

type LabeledFile struct {
	Path  string
	Label string
}

// ExtractLabel removes every decimal digit from fileName and then trims trailing
// characters that belong to the suffix set.
func ExtractLabel(fileName string) string {
	withoutDigits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, fileName)
	return strings.TrimRight(withoutDigits, suffixCutset)
}

// ListLabeledFiles returns the regular, non-hidden files directly under directory with
// their labels, ordered by file name.
func ListLabeledFiles(fs afero.Fs, directory string) ([]*LabeledFile, error) {
	logger.Info.Printf("Scanning directory '%s'", directory)
	entries, err := afero.ReadDir(fs, directory)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list directory '%s'", directory)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var files []*LabeledFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			logger.Trace.Printf("Skipping '%s'", name)
			continue
		}
		label := ExtractLabel(name)
		if label == "" {
			return nil, errors.Errorf("file '%s' does not yield a label", filepath.Join(directory, name))
		}
		files = append(files, &LabeledFile{
			Path:  filepath.Join(directory, name),
			Label: label,
		})
	}
	logger.Info.Printf("Found %d images", len(files))
	return files, nil
}

func Paths(files []*LabeledFile) []string {
	paths := make([]string, len(files))
	for i, file := range files {
		paths[i] = file.Path
	}
	return paths
}

func Labels(files []*LabeledFile) []string {
	labels := make([]string, len(files))
	for i, file := range files {
		labels[i] = file.Label
	}
	return labels
}

// Distribution counts files per label.
func Distribution(files []*LabeledFile) map[string]int {
	distribution := map[string]int{}
	for _, file := range files {
		distribution[file.Label]++
	}
	return distribution
}
