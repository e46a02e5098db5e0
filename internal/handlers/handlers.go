package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/Brownie44l1/agri-api/internal/config"
	"github.com/Brownie44l1/agri-api/internal/crop"
	"github.com/Brownie44l1/agri-api/internal/disease"
	"github.com/Brownie44l1/agri-api/internal/imaging"
	"github.com/Brownie44l1/agri-api/internal/logger"
	"github.com/Brownie44l1/agri-api/internal/metrics"
	"github.com/Brownie44l1/agri-api/internal/model"
	"github.com/Brownie44l1/agri-api/internal/vocab"
)

// Pipelines carries whatever loaded at startup. A nil pipeline is served as
// unavailable; its load error is reported by /info.
type Pipelines struct {
	Disease      *disease.Classifier
	DiseaseError error
	Crop         *crop.Recommender
	CropError    error
}

type Handler struct {
	pipelines Pipelines
	cfg       config.Config
}

func NewHandler(pipelines Pipelines, cfg config.Config) *Handler {
	return &Handler{
		pipelines: pipelines,
		cfg:       cfg,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(requestID, accessLog)
	if h.cfg.Server.CORS {
		r.Use(cors)
	}

	r.HandleFunc("/health", h.Health).Methods(h.methods("GET")...)
	r.HandleFunc("/info", h.Info).Methods(h.methods("GET")...)

	r.HandleFunc("/labels/diseases", h.DiseaseLabels).Methods(h.methods("GET")...)
	r.HandleFunc("/labels/crops", h.CropLabels).Methods(h.methods("GET")...)
	r.HandleFunc("/crop/inputs", h.CropInputs).Methods(h.methods("GET")...)

	r.HandleFunc("/predict/disease", h.PredictDisease).Methods(h.methods("POST")...)
	r.HandleFunc("/predict/disease/raw", h.PredictDiseaseRaw).Methods(h.methods("POST")...)
	r.HandleFunc("/predict/crop", h.PredictCrop).Methods(h.methods("POST")...)
	r.HandleFunc("/soil-health", h.SoilHealth).Methods(h.methods("POST")...)

	r.Handle("/metrics", metrics.Handler()).Methods("GET")
}

// methods adds OPTIONS for CORS preflight requests.
func (h *Handler) methods(m string) []string {
	if h.cfg.Server.CORS {
		return []string{m, http.MethodOptions}
	}
	return []string{m}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warnf("error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, imaging.ErrInvalidImage), errors.Is(err, crop.ErrInvalidSample):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func failureReason(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return "too_large"
	case errors.Is(err, imaging.ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, crop.ErrInvalidSample):
		return "invalid_sample"
	case errors.Is(err, model.ErrModelUnavailable):
		return "unavailable"
	case errors.Is(err, model.ErrVocabularyMismatch):
		return "vocabulary_mismatch"
	case errors.Is(err, model.ErrInvalidScores):
		return "invalid_scores"
	default:
		return "predictor"
	}
}

// fail logs, counts and answers a failed pipeline call.
func fail(w http.ResponseWriter, r *http.Request, pipeline string, err error) {
	status := statusFor(err)
	metrics.PredictionFailureCount.WithLabelValues(pipeline, failureReason(err)).Inc()

	log := logger.WithRequest(RequestID(r))
	switch {
	case errors.Is(err, model.ErrVocabularyMismatch):
		log.Errorf("%s pipeline contract violation: %v", pipeline, err)
	case status >= http.StatusInternalServerError:
		log.Errorf("%s prediction failed: %v", pipeline, err)
	default:
		log.Infof("%s request rejected: %v", pipeline, err)
	}
	respondError(w, status, err.Error())
}

func observe(pipeline string, start time.Time) {
	metrics.PredictionDuration.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type pipelineInfo struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

func newPipelineInfo(ready bool, err error) pipelineInfo {
	info := pipelineInfo{Ready: ready}
	if !ready {
		info.Reason = "model unavailable"
		if err != nil {
			info.Reason = err.Error()
		}
	}
	return info
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version": h.cfg.Version,
		"pipelines": map[string]pipelineInfo{
			metrics.DiseasePipeline: newPipelineInfo(h.pipelines.Disease != nil, h.pipelines.DiseaseError),
			metrics.CropPipeline:    newPipelineInfo(h.pipelines.Crop != nil, h.pipelines.CropError),
		},
		"max_upload_bytes": h.cfg.Server.MaxUploadBytes,
	})
}

type labelEntry struct {
	Index       int    `json:"index"`
	Label       string `json:"label"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) DiseaseLabels(w http.ResponseWriter, r *http.Request) {
	labels := make([]labelEntry, 0, vocab.NumDiseases)
	for i, l := range vocab.DiseaseLabels {
		labels = append(labels, labelEntry{Index: i, Label: l, DisplayName: vocab.FormatDiseaseName(l)})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"labels":           labels,
		"supported_plants": vocab.SupportedPlants(),
	})
}

func (h *Handler) CropLabels(w http.ResponseWriter, r *http.Request) {
	labels := make([]labelEntry, 0, vocab.NumCrops)
	for i, c := range vocab.CropLabels {
		labels = append(labels, labelEntry{Index: i, Label: c, DisplayName: vocab.DisplayCrop(c)})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"labels": labels})
}

// CropInputs describes the accepted range and starting value of each input.
func (h *Handler) CropInputs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"inputs":   crop.Bounds,
		"defaults": crop.DefaultSample(),
	})
}

// PredictDisease classifies the multipart upload in field "image".
func (h *Handler) PredictDisease(w http.ResponseWriter, r *http.Request) {
	metrics.PredictionCount.WithLabelValues(metrics.DiseasePipeline).Inc()
	if h.pipelines.Disease == nil {
		fail(w, r, metrics.DiseasePipeline, h.unavailable(h.pipelines.DiseaseError))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.Server.MaxUploadBytes); err != nil {
		fail(w, r, metrics.DiseasePipeline, rejectBody(errors.Wrap(err, "failed to parse form"), imaging.ErrInvalidImage))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		fail(w, r, metrics.DiseasePipeline, errors.Wrap(imaging.ErrInvalidImage, "no image file provided, use 'image' as the form field name"))
		return
	}
	defer file.Close()

	logger.WithRequest(RequestID(r)).Debugf("received file %s, %d bytes", header.Filename, header.Size)

	start := time.Now()
	d, err := h.pipelines.Disease.ClassifyReader(file)
	observe(metrics.DiseasePipeline, start)
	if err != nil {
		fail(w, r, metrics.DiseasePipeline, err)
		return
	}

	metrics.PredictedClassCount.WithLabelValues(metrics.DiseasePipeline, d.Label).Inc()
	respondJSON(w, http.StatusOK, d)
}

// PredictionRequest carries an already normalized image tensor.
type PredictionRequest struct {
	Image []float32 `json:"image"`
}

func (h *Handler) PredictDiseaseRaw(w http.ResponseWriter, r *http.Request) {
	metrics.PredictionCount.WithLabelValues(metrics.DiseasePipeline).Inc()
	if h.pipelines.Disease == nil {
		fail(w, r, metrics.DiseasePipeline, h.unavailable(h.pipelines.DiseaseError))
		return
	}

	var req PredictionRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		fail(w, r, metrics.DiseasePipeline, rejectBody(err, imaging.ErrInvalidImage))
		return
	}

	start := time.Now()
	d, err := h.pipelines.Disease.ClassifyTensor(req.Image)
	observe(metrics.DiseasePipeline, start)
	if err != nil {
		fail(w, r, metrics.DiseasePipeline, err)
		return
	}

	metrics.PredictedClassCount.WithLabelValues(metrics.DiseasePipeline, d.Label).Inc()
	respondJSON(w, http.StatusOK, d)
}

// sampleRequest uses pointers so absent fields can be told apart from zero.
type sampleRequest struct {
	N           *float64 `json:"N"`
	P           *float64 `json:"P"`
	K           *float64 `json:"K"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	PH          *float64 `json:"ph"`
	Rainfall    *float64 `json:"rainfall"`
}

func (req sampleRequest) sample() (crop.Sample, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"N", req.N}, {"P", req.P}, {"K", req.K}, {"temperature", req.Temperature},
		{"humidity", req.Humidity}, {"ph", req.PH}, {"rainfall", req.Rainfall},
	}
	var missing []string
	for _, f := range fields {
		if f.v == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return crop.Sample{}, errors.Wrapf(crop.ErrInvalidSample, "missing: %s", strings.Join(missing, ", "))
	}
	return crop.Sample{
		N:           *req.N,
		P:           *req.P,
		K:           *req.K,
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
		PH:          *req.PH,
		Rainfall:    *req.Rainfall,
	}, nil
}

func (h *Handler) PredictCrop(w http.ResponseWriter, r *http.Request) {
	metrics.PredictionCount.WithLabelValues(metrics.CropPipeline).Inc()
	if h.pipelines.Crop == nil {
		fail(w, r, metrics.CropPipeline, h.unavailable(h.pipelines.CropError))
		return
	}

	var req sampleRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		fail(w, r, metrics.CropPipeline, rejectBody(err, crop.ErrInvalidSample))
		return
	}
	s, err := req.sample()
	if err != nil {
		fail(w, r, metrics.CropPipeline, err)
		return
	}

	start := time.Now()
	rec, err := h.pipelines.Crop.Recommend(s)
	observe(metrics.CropPipeline, start)
	if err != nil {
		fail(w, r, metrics.CropPipeline, err)
		return
	}

	metrics.PredictedClassCount.WithLabelValues(metrics.CropPipeline, rec.Crop).Inc()
	respondJSON(w, http.StatusOK, rec)
}

type soilRequest struct {
	N  *float64 `json:"N"`
	P  *float64 `json:"P"`
	PH *float64 `json:"ph"`
}

// SoilHealth needs no predictor and answers even when both pipelines are down.
func (h *Handler) SoilHealth(w http.ResponseWriter, r *http.Request) {
	var req soilRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		respondError(w, statusFor(rejectBody(err, crop.ErrInvalidSample)), err.Error())
		return
	}
	if req.N == nil || req.P == nil || req.PH == nil {
		respondError(w, http.StatusBadRequest, "N, P and ph are required")
		return
	}
	respondJSON(w, http.StatusOK, crop.SoilHealth(*req.N, *req.P, *req.PH))
}

// rejectBody keeps an oversized body distinguishable from a malformed one.
func rejectBody(err error, malformed error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errors.Wrapf(err, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return errors.Wrap(malformed, err.Error())
}

// unavailable reports a pipeline that failed to load, whatever the cause.
func (h *Handler) unavailable(cause error) error {
	switch {
	case cause == nil:
		return model.ErrModelUnavailable
	case errors.Is(cause, model.ErrModelUnavailable):
		return cause
	}
	return errors.Wrap(model.ErrModelUnavailable, cause.Error())
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "invalid JSON")
	}
	return nil
}
