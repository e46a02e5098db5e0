package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReady(t *testing.T) {
	SetReady(CropPipeline, true)
	assert.Equal(t, 1.0, testutil.ToFloat64(PipelineReady.WithLabelValues(CropPipeline)))

	SetReady(CropPipeline, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(PipelineReady.WithLabelValues(CropPipeline)))
}

func TestHandlerExposesCounters(t *testing.T) {
	PredictionCount.WithLabelValues(DiseasePipeline).Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `agri_predictor_prediction_total{pipeline="disease"}`)
}
