package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/agri-api/internal/config"
	"github.com/Brownie44l1/agri-api/internal/model"
	"github.com/Brownie44l1/agri-api/internal/remedy"
)

func emptyModelsConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Models.Dir = t.TempDir()
	cfg.Remedies = filepath.Join(cfg.Models.Dir, "remedies.json")
	return cfg
}

func TestLoadWithoutArtifacts(t *testing.T) {
	b := Load(emptyModelsConfig(t))
	defer b.Close()

	assert.Nil(t, b.Pipelines.Disease)
	assert.True(t, errors.Is(b.Pipelines.DiseaseError, model.ErrModelUnavailable), "got %v", b.Pipelines.DiseaseError)
	assert.Nil(t, b.Pipelines.Crop)
	assert.True(t, errors.Is(b.Pipelines.CropError, model.ErrModelUnavailable), "got %v", b.Pipelines.CropError)

	// Missing artifacts never reach the ONNX runtime.
	assert.Nil(t, b.runtime)
	assert.NoError(t, b.runtimeErr)

	assert.Equal(t, remedy.Fallback, b.Remedies.Lookup("Apple__Apple_scab"))
}

func TestLoadRemedies(t *testing.T) {
	cfg := emptyModelsConfig(t)
	require.NoError(t, os.WriteFile(cfg.Remedies, []byte(`{"Apple__Apple_scab": "Apply captan."}`), 0o644))

	b := NewBundle(cfg)
	b.LoadRemedies()
	assert.Equal(t, "Apply captan.", b.Remedies.Lookup("Apple__Apple_scab"))
}

func TestCorruptForestIsUnavailable(t *testing.T) {
	cfg := emptyModelsConfig(t)
	cfg.Models.Crop = "crop_model.forest"
	require.NoError(t, os.WriteFile(cfg.Models.Resolve(cfg.Models.Crop), []byte("not a forest"), 0o644))

	b := NewBundle(cfg)
	b.LoadCrop()
	defer b.Close()

	assert.Nil(t, b.Pipelines.Crop)
	assert.Error(t, b.Pipelines.CropError)
	assert.Nil(t, b.runtime)
}

func TestServerServesUnavailablePipelines(t *testing.T) {
	cfg := emptyModelsConfig(t)
	s := New(cfg, Load(cfg))
	defer s.Stop(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/predict/crop", "application/json",
		strings.NewReader(`{"N":90,"P":42,"K":43,"temperature":20.9,"humidity":82,"ph":6.5,"rainfall":202.9}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
