package model

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// CheckArtifact turns a missing or unreadable artifact into
// ErrModelUnavailable so callers never see a low-level runtime error for it.
func CheckArtifact(path string) error {
	if path == "" {
		return errors.Wrap(ErrModelUnavailable, "no artifact configured")
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(ErrModelUnavailable, "artifact %s: %v", path, err)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrModelUnavailable, "artifact %s is a directory", path)
	}
	return nil
}

// IsONNX reports whether path names an ONNX artifact.
func IsONNX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".onnx")
}

// TabularPredictor maps one feature record to a class index.
type TabularPredictor interface {
	PredictIndex(rec FeatureRecord) (int, error)
}

// LoadTabularPredictor picks the backend from the artifact extension: .onnx
// files run on the ONNX runtime, anything else is read as a golearn random
// forest. For a forest, metadataPath may name a training-data CSV used as the
// parsing template, and classes resolves predictions that are class names
// rather than indices.
func LoadTabularPredictor(rt *Runtime, modelPath, metadataPath string, classes []string) (TabularPredictor, error) {
	if err := CheckArtifact(modelPath); err != nil {
		return nil, err
	}
	if !IsONNX(modelPath) {
		return NewForestPredictor(modelPath, metadataPath, classes)
	}

	meta, err := LoadTabularMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	return NewTabularSession(rt, modelPath, meta)
}
