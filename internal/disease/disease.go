// Package disease implements the leaf disease classification pipeline:
// normalize the photograph, score it, pick the top class and attach a remedy.
package disease

import (
	"image"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/agri-api/internal/imaging"
	"github.com/Brownie44l1/agri-api/internal/model"
	"github.com/Brownie44l1/agri-api/internal/remedy"
	"github.com/Brownie44l1/agri-api/internal/vocab"
)

// ScorePredictor is an image classifier returning one score per class.
type ScorePredictor interface {
	Predict(input []float32) ([]float32, error)
	OutputWidth() int
}

// classLister is implemented by predictors whose artifact declares its class
// names.
type classLister interface {
	Classes() []string
}

// Diagnosis is the outcome of one classification.
type Diagnosis struct {
	Index       int                `json:"index"`
	Label       string             `json:"label"`
	DisplayName string             `json:"display_name"`
	Plant       string             `json:"plant"`
	Healthy     bool               `json:"healthy"`
	Confidence  float32            `json:"confidence"`
	Remedy      string             `json:"remedy"`
	Scores      map[string]float32 `json:"scores,omitempty"`
}

// Options tune tensor preparation. The zero value gives a 224x224 NHWC tensor.
type Options struct {
	ImageSize int
	Layout    imaging.Layout
}

// Classifier is safe for concurrent use as long as its predictor is.
type Classifier struct {
	predictor ScorePredictor
	remedies  *remedy.Table
	opts      Options
}

// New checks the predictor against the disease vocabulary. A nil predictor
// yields ErrModelUnavailable; a width or class-order mismatch yields
// ErrVocabularyMismatch. A nil remedies table answers every lookup with the
// fallback text.
func New(p ScorePredictor, remedies *remedy.Table, opts Options) (*Classifier, error) {
	if p == nil {
		return nil, errors.Wrap(model.ErrModelUnavailable, "disease predictor not loaded")
	}
	if w := p.OutputWidth(); w != vocab.NumDiseases {
		return nil, errors.Wrapf(model.ErrVocabularyMismatch, "predictor has %d outputs, vocabulary has %d", w, vocab.NumDiseases)
	}
	if cl, ok := p.(classLister); ok {
		if err := checkClasses(cl.Classes()); err != nil {
			return nil, err
		}
	}

	if opts.ImageSize <= 0 {
		opts.ImageSize = imaging.DefaultSize
	}
	if opts.Layout == "" {
		opts.Layout = imaging.NHWC
	}
	if remedies == nil {
		remedies = remedy.Empty()
	}
	return &Classifier{predictor: p, remedies: remedies, opts: opts}, nil
}

func checkClasses(classes []string) error {
	if len(classes) == 0 {
		return nil
	}
	if len(classes) != vocab.NumDiseases {
		return errors.Wrapf(model.ErrVocabularyMismatch, "artifact declares %d classes", len(classes))
	}
	for i, c := range classes {
		if c != vocab.DiseaseLabels[i] {
			return errors.Wrapf(model.ErrVocabularyMismatch, "class %d is %q, vocabulary has %q", i, c, vocab.DiseaseLabels[i])
		}
	}
	return nil
}

// InputSize is the length of the tensor ClassifyTensor expects.
func (c *Classifier) InputSize() int {
	if c == nil {
		return 0
	}
	return c.opts.ImageSize * c.opts.ImageSize * imaging.Channels
}

// ClassifyReader decodes r and classifies it. Undecodable input fails with
// imaging.ErrInvalidImage before the predictor is called.
func (c *Classifier) ClassifyReader(r io.Reader) (*Diagnosis, error) {
	if c == nil {
		return nil, model.ErrModelUnavailable
	}
	img, _, err := imaging.Decode(r)
	if err != nil {
		return nil, err
	}
	return c.Classify(img)
}

func (c *Classifier) Classify(img image.Image) (*Diagnosis, error) {
	if c == nil {
		return nil, model.ErrModelUnavailable
	}
	input, err := imaging.Normalize(img, c.opts.ImageSize, c.opts.Layout)
	if err != nil {
		return nil, err
	}
	return c.ClassifyTensor(input)
}

// ClassifyTensor scores an already normalized tensor. Every value must lie
// in [0,1]; anything else fails with imaging.ErrInvalidImage before the
// predictor is called.
func (c *Classifier) ClassifyTensor(input []float32) (*Diagnosis, error) {
	if c == nil {
		return nil, model.ErrModelUnavailable
	}
	if len(input) != c.InputSize() {
		return nil, errors.Wrapf(imaging.ErrInvalidImage, "expected %d values, got %d", c.InputSize(), len(input))
	}
	for i, v := range input {
		if !(v >= 0 && v <= 1) {
			return nil, errors.Wrapf(imaging.ErrInvalidImage, "value %d is %v, want [0,1]", i, v)
		}
	}

	scores, err := c.predictor.Predict(input)
	if err != nil {
		return nil, errors.Wrap(err, "disease prediction failed")
	}

	idx, err := ArgMax(scores)
	if err != nil {
		return nil, err
	}
	label, ok := vocab.Disease(idx)
	if !ok {
		return nil, errors.Wrapf(model.ErrVocabularyMismatch, "class index %d out of range", idx)
	}

	plant, condition := vocab.SplitDisease(label)
	d := &Diagnosis{
		Index:       idx,
		Label:       label,
		DisplayName: vocab.FormatDiseaseName(label),
		Plant:       plant,
		Healthy:     vocab.IsHealthy(condition),
		Confidence:  clamp(scores[idx]),
		Remedy:      c.remedies.Lookup(label),
		Scores:      make(map[string]float32, len(scores)),
	}
	for i, s := range scores {
		if l, ok := vocab.Disease(i); ok {
			d.Scores[l] = clamp(s)
		}
	}
	return d, nil
}

// clamp maps ±Inf onto the largest finite float32 so a diagnosis always
// encodes as JSON.
func clamp(v float32) float32 {
	switch {
	case math.IsInf(float64(v), 1):
		return math.MaxFloat32
	case math.IsInf(float64(v), -1):
		return -math.MaxFloat32
	}
	return v
}

// ArgMax returns the index of the largest score. Ties go to the lowest
// index. ±Inf are ordinary scores (log-softmax outputs -Inf); empty vectors
// and vectors containing NaN are rejected.
func ArgMax(scores []float32) (int, error) {
	if len(scores) == 0 {
		return 0, errors.Wrap(model.ErrInvalidScores, "empty score vector")
	}

	maxIdx := 0
	for i, v := range scores {
		if math.IsNaN(float64(v)) {
			return 0, errors.Wrapf(model.ErrInvalidScores, "score %d is %v", i, v)
		}
		if v > scores[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx, nil
}
