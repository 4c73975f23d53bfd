package onehot

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"vincit.fi/image-dataset/api/apitype"
)

// ToOneHot returns a (len(labels), numClasses) matrix with a single 1 per row at the
// column of the label.
func ToOneHot(labels []int, numClasses int) (*mat.Dense, error) {
	if numClasses <= 0 {
		return nil, errors.Errorf("number of classes must be positive, got %d", numClasses)
	}
	if len(labels) == 0 {
		return nil, errors.New("no labels to encode")
	}

	matrix := mat.NewDense(len(labels), numClasses, nil)
	for i, label := range labels {
		if label < 0 || label >= numClasses {
			return nil, &apitype.LabelOutOfRangeError{Index: i, Label: label, NumClasses: numClasses}
		}
		matrix.Set(i, label, 1)
	}
	return matrix, nil
}

// Float32Rows flattens the matrix row by row.
func Float32Rows(matrix mat.Matrix) []float32 {
	rows, columns := matrix.Dims()
	values := make([]float32, 0, rows*columns)
	for i := 0; i < rows; i++ {
		for j := 0; j < columns; j++ {
			values = append(values, float32(matrix.At(i, j)))
		}
	}
	return values
}

// Classes returns the column of the 1 in every row.
func Classes(matrix mat.Matrix) []int {
	rows, columns := matrix.Dims()
	classes := make([]int, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < columns; j++ {
			if matrix.At(i, j) == 1 {
				classes[i] = j
				break
			}
		}
	}
	return classes
}
