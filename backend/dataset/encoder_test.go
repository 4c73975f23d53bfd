package dataset

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestLabelEncoder(t *testing.T) {
	t.Run("Fit sorts classes", func(t *testing.T) {
		a := require.New(t)
		sut := NewLabelEncoder()

		encoded, err := sut.FitTransform([]string{"tulip", "daisy", "rose", "daisy"})

		a.Nil(err)
		a.Equal([]string{"daisy", "rose", "tulip"}, sut.Classes())
		a.Equal(3, sut.NumClasses())
		a.Equal([]int{2, 0, 1, 0}, encoded)
	})

	t.Run("Inverse transform", func(t *testing.T) {
		a := require.New(t)
		sut := NewLabelEncoder()
		labels := []string{"tulip", "daisy", "rose"}
		encoded, err := sut.FitTransform(labels)
		a.Nil(err)

		decoded, err := sut.InverseTransform(encoded)

		a.Nil(err)
		a.Equal(labels, decoded)

		_, err = sut.InverseTransform([]int{3})
		a.NotNil(err)
	})

	t.Run("Unknown label", func(t *testing.T) {
		a := assert.New(t)
		sut := NewLabelEncoder()
		a.Nil(sut.Fit([]string{"rose"}))

		_, err := sut.Transform([]string{"rose", "lily"})

		a.NotNil(err)
	})

	t.Run("Not fitted", func(t *testing.T) {
		a := assert.New(t)
		sut := NewLabelEncoder()

		_, err := sut.Transform([]string{"rose"})
		a.NotNil(err)
		a.NotNil(sut.Fit(nil))
	})

	t.Run("From classes", func(t *testing.T) {
		a := assert.New(t)

		sut, err := NewLabelEncoderFromClasses([]string{"daisy", "rose"})
		a.Nil(err)
		encoded, err := sut.Transform([]string{"rose"})
		a.Nil(err)
		a.Equal([]int{1}, encoded)

		_, err = NewLabelEncoderFromClasses([]string{"rose", "rose"})
		a.NotNil(err)
	})
}
