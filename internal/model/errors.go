package model

import "github.com/pkg/errors"

var (
	// ErrModelUnavailable means the predictor artifact could not be loaded.
	// The owning pipeline refuses all input until restart.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrVocabularyMismatch is a contract violation between an artifact and
	// the compiled-in vocabulary: wrong output width, different class order,
	// or an index outside the vocabulary.
	ErrVocabularyMismatch = errors.New("predictor output does not match vocabulary")

	// ErrInvalidScores is returned for empty or non-finite score vectors.
	ErrInvalidScores = errors.New("predictor returned invalid scores")
)
