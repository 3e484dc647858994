package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

var ErrAmbiguousDocument = fmt.Errorf("document sets both samples and features/targets, %w", ErrInvalidInput)

// document is the on disk format of a sample set. Either Samples or the Features/Targets pair
// is populated.
type document struct {
	Features []float64 `json:"features,omitempty"`
	Targets  []float64 `json:"targets,omitempty"`
	Samples  []Sample  `json:"samples,omitempty"`
}

// Load decodes a sample set from a JSON document in either the column form
// {"features": [...], "targets": [...]} or the row form {"samples": [{"feature": 1, "target": 2}]}
func Load(r io.Reader) (Samples, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("unable to decode dataset, %w, %w", err, ErrInvalidInput)
	}

	if len(doc.Samples) > 0 {
		if len(doc.Features) > 0 || len(doc.Targets) > 0 {
			return nil, ErrAmbiguousDocument
		}
		s := Samples(doc.Samples)
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return s, nil
	}
	return New(doc.Features, doc.Targets)
}

// LoadFile reads a JSON dataset from the path
func LoadFile(path string) (Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s, %w", path, err)
	}
	return s, nil
}

// Save writes the samples in the row form accepted by Load
func (s Samples) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{Samples: s})
}
