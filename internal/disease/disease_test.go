package disease

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/agri-api/internal/imaging"
	"github.com/Brownie44l1/agri-api/internal/model"
	"github.com/Brownie44l1/agri-api/internal/remedy"
	"github.com/Brownie44l1/agri-api/internal/vocab"
)

type fakePredictor struct {
	scores  []float32
	width   int
	classes []string
	err     error
	calls   int
	gotLen  int
}

func (f *fakePredictor) Predict(input []float32) ([]float32, error) {
	f.calls++
	f.gotLen = len(input)
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func (f *fakePredictor) OutputWidth() int {
	if f.width != 0 {
		return f.width
	}
	return len(f.scores)
}

type listingPredictor struct {
	*fakePredictor
}

func (l listingPredictor) Classes() []string { return l.classes }

func oneHot(i int) []float32 {
	s := make([]float32, vocab.NumDiseases)
	s[i] = 0.9
	return s
}

func zeroImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, imaging.DefaultSize, imaging.DefaultSize))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func TestNewRejectsMissingPredictor(t *testing.T) {
	_, err := New(nil, nil, Options{})
	assert.True(t, errors.Is(err, model.ErrModelUnavailable))

	var c *Classifier
	_, err = c.Classify(zeroImage())
	assert.True(t, errors.Is(err, model.ErrModelUnavailable))
	_, err = c.ClassifyReader(strings.NewReader("x"))
	assert.True(t, errors.Is(err, model.ErrModelUnavailable))
}

func TestNewRejectsWidthMismatch(t *testing.T) {
	_, err := New(&fakePredictor{width: 10}, nil, Options{})
	assert.True(t, errors.Is(err, model.ErrVocabularyMismatch))
}

func TestNewChecksDeclaredClasses(t *testing.T) {
	good := listingPredictor{&fakePredictor{width: vocab.NumDiseases, classes: vocab.DiseaseLabels[:]}}
	_, err := New(good, nil, Options{})
	assert.NoError(t, err)

	swapped := append([]string{}, vocab.DiseaseLabels[:]...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	bad := listingPredictor{&fakePredictor{width: vocab.NumDiseases, classes: swapped}}
	_, err = New(bad, nil, Options{})
	assert.True(t, errors.Is(err, model.ErrVocabularyMismatch))
}

func TestClassifyZeroImage(t *testing.T) {
	p := &fakePredictor{scores: oneHot(29)}
	c, err := New(p, remedy.New(map[string]string{"Tomato__Early_blight": "Remove lower leaves."}), Options{})
	require.NoError(t, err)

	d, err := c.Classify(zeroImage())
	require.NoError(t, err)
	assert.Equal(t, imaging.DefaultSize*imaging.DefaultSize*imaging.Channels, p.gotLen)
	assert.GreaterOrEqual(t, d.Index, 0)
	assert.Less(t, d.Index, vocab.NumDiseases)
	assert.Equal(t, "Tomato__Early_blight", d.Label)
	assert.Equal(t, "Tomato: Early blight", d.DisplayName)
	assert.Equal(t, "Tomato", d.Plant)
	assert.False(t, d.Healthy)
	assert.Equal(t, "Remove lower leaves.", d.Remedy)
	assert.InDelta(t, 0.9, d.Confidence, 1e-6)
	assert.Len(t, d.Scores, vocab.NumDiseases)
}

func TestClassifyHealthyWithoutRemedies(t *testing.T) {
	c, err := New(&fakePredictor{scores: oneHot(3)}, nil, Options{})
	require.NoError(t, err)

	d, err := c.Classify(zeroImage())
	require.NoError(t, err)
	assert.Equal(t, "Apple (Healthy)", d.DisplayName)
	assert.True(t, d.Healthy)
	assert.Equal(t, remedy.Fallback, d.Remedy)
}

func TestClassifyReaderDecodes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 31, 17))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	p := &fakePredictor{scores: oneHot(0)}
	c, err := New(p, nil, Options{})
	require.NoError(t, err)

	d, err := c.ClassifyReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Apple__Apple_scab", d.Label)
	assert.Equal(t, 1, p.calls)
}

func TestClassifyReaderRejectsMalformedBeforeInference(t *testing.T) {
	p := &fakePredictor{scores: oneHot(0)}
	c, err := New(p, nil, Options{})
	require.NoError(t, err)

	_, err = c.ClassifyReader(strings.NewReader("not an image"))
	assert.True(t, errors.Is(err, imaging.ErrInvalidImage))
	assert.Equal(t, 0, p.calls)
}

func TestClassifyPropagatesPredictorError(t *testing.T) {
	p := &fakePredictor{width: vocab.NumDiseases, err: errors.New("session crashed")}
	c, err := New(p, nil, Options{})
	require.NoError(t, err)

	_, err = c.Classify(zeroImage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session crashed")
	assert.Equal(t, 1, p.calls)
}

func TestClassifyOutOfRangeIndex(t *testing.T) {
	scores := make([]float32, vocab.NumDiseases+2)
	scores[vocab.NumDiseases+1] = 1
	p := &fakePredictor{width: vocab.NumDiseases, scores: scores}
	c, err := New(p, nil, Options{})
	require.NoError(t, err)

	_, err = c.Classify(zeroImage())
	assert.True(t, errors.Is(err, model.ErrVocabularyMismatch))
}

func TestClassifyTensorLength(t *testing.T) {
	c, err := New(&fakePredictor{scores: oneHot(5)}, nil, Options{ImageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 12, c.InputSize())

	_, err = c.ClassifyTensor(make([]float32, 11))
	assert.True(t, errors.Is(err, imaging.ErrInvalidImage))

	d, err := c.ClassifyTensor(make([]float32, 12))
	require.NoError(t, err)
	assert.Equal(t, 5, d.Index)
}

func TestArgMax(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   int
	}{
		{"single", []float32{0.3}, 0},
		{"last", []float32{0.1, 0.2, 0.7}, 2},
		{"tie goes to first", []float32{0.1, 0.45, 0.45}, 1},
		{"all equal", []float32{0.25, 0.25, 0.25, 0.25}, 0},
		{"negative logits", []float32{-3, -1, -2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ArgMax(tt.scores)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgMaxRejectsInvalid(t *testing.T) {
	_, err := ArgMax(nil)
	assert.True(t, errors.Is(err, model.ErrInvalidScores))

	_, err = ArgMax([]float32{0.1, float32(math.NaN())})
	assert.True(t, errors.Is(err, model.ErrInvalidScores))
}

func TestArgMaxAcceptsInfinities(t *testing.T) {
	negInf := float32(math.Inf(-1))

	i, err := ArgMax([]float32{negInf, -0.2, negInf, -0.2})
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = ArgMax([]float32{negInf, negInf})
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = ArgMax([]float32{3, float32(math.Inf(1)), 5})
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

func TestClassifyLogSoftmaxScoresEncode(t *testing.T) {
	scores := make([]float32, vocab.NumDiseases)
	for i := range scores {
		scores[i] = float32(math.Inf(-1))
	}
	scores[7] = -0.05
	c, err := New(&fakePredictor{scores: scores}, nil, Options{ImageSize: 2})
	require.NoError(t, err)

	d, err := c.ClassifyTensor(make([]float32, 12))
	require.NoError(t, err)
	assert.Equal(t, 7, d.Index)
	assert.InDelta(t, -0.05, d.Confidence, 1e-6)

	_, err = json.Marshal(d)
	assert.NoError(t, err)
}

func TestClassifyTensorRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name string
		v    float32
	}{
		{"raw pixel", 255},
		{"negative", -7},
		{"just above one", 1.0001},
		{"nan", float32(math.NaN())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePredictor{scores: oneHot(5)}
			c, err := New(p, nil, Options{ImageSize: 2})
			require.NoError(t, err)

			input := make([]float32, 12)
			input[4] = tt.v
			_, err = c.ClassifyTensor(input)
			assert.True(t, errors.Is(err, imaging.ErrInvalidImage), "got %v", err)
			assert.Equal(t, 0, p.calls)
		})
	}
}
