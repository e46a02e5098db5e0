// Package crop implements the crop recommendation pipeline.
package crop

import (
	"github.com/pkg/errors"

	"github.com/Brownie44l1/agri-api/internal/model"
	"github.com/Brownie44l1/agri-api/internal/vocab"
)

// IndexPredictor is a tabular classifier returning a 0-based class index.
type IndexPredictor interface {
	PredictIndex(rec model.FeatureRecord) (int, error)
}

type classCounter interface {
	NumClasses() int
}

type Recommendation struct {
	Index       int              `json:"index"`
	Crop        string           `json:"crop"`
	DisplayName string           `json:"display_name"`
	SoilHealth  SoilHealthReport `json:"soil_health"`
}

type Recommender struct {
	predictor IndexPredictor
}

// New fails with ErrModelUnavailable for a nil predictor and with
// ErrVocabularyMismatch when the artifact declares a class count different
// from the crop vocabulary.
func New(p IndexPredictor) (*Recommender, error) {
	if p == nil {
		return nil, errors.Wrap(model.ErrModelUnavailable, "crop predictor not loaded")
	}
	if cc, ok := p.(classCounter); ok {
		if n := cc.NumClasses(); n > 0 && n != vocab.NumCrops {
			return nil, errors.Wrapf(model.ErrVocabularyMismatch, "predictor has %d classes, vocabulary has %d", n, vocab.NumCrops)
		}
	}
	return &Recommender{predictor: p}, nil
}

func (r *Recommender) Recommend(s Sample) (*Recommendation, error) {
	if r == nil {
		return nil, model.ErrModelUnavailable
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	idx, err := r.predictor.PredictIndex(s.Features())
	if err != nil {
		return nil, errors.Wrap(err, "crop prediction failed")
	}
	name, ok := vocab.Crop(idx)
	if !ok {
		return nil, errors.Wrapf(model.ErrVocabularyMismatch, "class index %d out of range", idx)
	}

	return &Recommendation{
		Index:       idx,
		Crop:        name,
		DisplayName: vocab.DisplayCrop(name),
		SoilHealth:  SoilHealth(s.N, s.P, s.PH),
	}, nil
}
