package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "agri"

// Pipeline label values.
const (
	DiseasePipeline = "disease"
	CropPipeline    = "crop"
)

// Variables declared for metrics.
var (
	PredictionCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "predictor",
		Name:      "prediction_total",
		Help:      "Counter of the number of predictions requested.",
	}, []string{"pipeline"})

	PredictionFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "predictor",
		Name:      "prediction_failure_total",
		Help:      "Counter of the number of failed predictions.",
	}, []string{"pipeline", "reason"})

	PredictionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "predictor",
		Name:      "prediction_duration_seconds",
		Help:      "Histogram of the time each prediction took.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"pipeline"})

	PredictedClassCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "predictor",
		Name:      "predicted_class_total",
		Help:      "Counter of the number of predictions per class label.",
	}, []string{"pipeline", "label"})

	HTTPRequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "request_total",
		Help:      "Counter of the number of HTTP requests.",
	}, []string{"route", "code"})

	PipelineReady = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "predictor",
		Name:      "ready",
		Help:      "Whether the pipeline loaded its artifact (1) or is unavailable (0).",
	}, []string{"pipeline"})
)

// SetReady records whether a pipeline is serving.
func SetReady(pipeline string, ready bool) {
	v := 0.0
	if ready {
		v = 1
	}
	PipelineReady.WithLabelValues(pipeline).Set(v)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
