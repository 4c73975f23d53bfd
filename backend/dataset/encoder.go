package dataset

import (
	"github.com/pkg/errors"
	"sort"
	"vincit.fi/image-dataset/common/util"
)

// LabelEncoder maps string labels to dense integers [0, NumClasses). Classes are
// numbered in sorted order.
type LabelEncoder struct {
	classes      []string
	indexByClass map[string]int
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// NewLabelEncoderFromClasses restores a fitted encoder from its class list.
func NewLabelEncoderFromClasses(classes []string) (*LabelEncoder, error) {
	encoder := NewLabelEncoder()
	if err := encoder.Fit(classes); err != nil {
		return nil, err
	}
	if encoder.NumClasses() != len(classes) {
		return nil, errors.Errorf("class list contains duplicates: %v", classes)
	}
	return encoder, nil
}

func (s *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.New("cannot fit label encoder without labels")
	}
	distinct := util.NewSet[string]()
	for _, label := range labels {
		distinct.Add(label)
	}
	s.classes = distinct.Values()
	sort.Strings(s.classes)

	s.indexByClass = make(map[string]int, len(s.classes))
	for i, class := range s.classes {
		s.indexByClass[class] = i
	}
	return nil
}

func (s *LabelEncoder) IsFitted() bool {
	return s.indexByClass != nil
}

func (s *LabelEncoder) Transform(labels []string) ([]int, error) {
	if !s.IsFitted() {
		return nil, errors.New("label encoder is not fitted")
	}
	encoded := make([]int, len(labels))
	for i, label := range labels {
		if index, ok := s.indexByClass[label]; ok {
			encoded[i] = index
		} else {
			return nil, errors.Errorf("unknown label '%s' at index %d", label, i)
		}
	}
	return encoded, nil
}

func (s *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := s.Fit(labels); err != nil {
		return nil, err
	}
	return s.Transform(labels)
}

func (s *LabelEncoder) InverseTransform(encoded []int) ([]string, error) {
	if !s.IsFitted() {
		return nil, errors.New("label encoder is not fitted")
	}
	labels := make([]string, len(encoded))
	for i, index := range encoded {
		if index < 0 || index >= len(s.classes) {
			return nil, errors.Errorf("encoded label %d at index %d is not a known class", index, i)
		}
		labels[i] = s.classes[index]
	}
	return labels, nil
}

func (s *LabelEncoder) Classes() []string {
	return append([]string{}, s.classes...)
}

func (s *LabelEncoder) NumClasses() int {
	return len(s.classes)
}
