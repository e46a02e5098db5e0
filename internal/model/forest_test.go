package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/ensemble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	riceRecord  = FeatureRecord{N: 85, P: 44, K: 40, Temperature: 23, Humidity: 82, PH: 6.5, Rainfall: 220}
	maizeRecord = FeatureRecord{N: 25, P: 14, K: 20, Temperature: 30, Humidity: 60, PH: 5.5, Rainfall: 75}
)

// writeTrainingCSV writes alternating rice and maize rows, rice first, so the
// class attribute is parsed as [rice maize].
func writeTrainingCSV(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(append(append([]string{}, FeatureNames...), ClassColumn), ",") + "\n")
	for i := 0; i < 12; i++ {
		d := float64(i % 4)
		r, m := riceRecord, maizeRecord
		fmt.Fprintf(&b, "%g,%g,%g,%g,%g,%g,%g,rice\n", r.N+d, r.P+d, r.K+d, r.Temperature+d/4, r.Humidity+d, r.PH+d/10, r.Rainfall+5*d)
		fmt.Fprintf(&b, "%g,%g,%g,%g,%g,%g,%g,maize\n", m.N+d, m.P+d, m.K+d, m.Temperature+d/4, m.Humidity+d, m.PH+d/10, m.Rainfall+5*d)
	}
	path := filepath.Join(dir, "crop_train.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func trainForest(t *testing.T) (modelPath, trainingPath string) {
	t.Helper()
	dir := t.TempDir()
	trainingPath = writeTrainingCSV(t, dir)

	train, err := base.ParseCSVToInstances(trainingPath, true)
	require.NoError(t, err)

	rf := ensemble.NewRandomForest(10, len(FeatureNames))
	require.NoError(t, rf.Fit(train))

	modelPath = filepath.Join(dir, "crop_model.forest")
	require.NoError(t, rf.Save(modelPath))
	return modelPath, trainingPath
}

func TestForestPredictorWithSeededTemplate(t *testing.T) {
	modelPath, _ := trainForest(t)

	p, err := NewForestPredictor(modelPath, "", []string{"rice", "maize"})
	require.NoError(t, err)

	i, err := p.PredictIndex(riceRecord)
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = p.PredictIndex(maizeRecord)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

func TestForestPredictorWithTrainingTemplate(t *testing.T) {
	modelPath, trainingPath := trainForest(t)

	p, err := LoadTabularPredictor(nil, modelPath, trainingPath, []string{"rice", "maize"})
	require.NoError(t, err)

	i, err := p.PredictIndex(maizeRecord)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = p.PredictIndex(riceRecord)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
}

func TestForestMissingTemplateIsUnavailable(t *testing.T) {
	modelPath, _ := trainForest(t)

	_, err := NewForestPredictor(modelPath, filepath.Join(t.TempDir(), "missing.csv"), []string{"rice", "maize"})
	assert.True(t, errors.Is(err, ErrModelUnavailable), "got %v", err)
}
