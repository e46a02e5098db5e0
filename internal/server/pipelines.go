package server

import (
	"github.com/pkg/errors"

	"github.com/Brownie44l1/agri-api/internal/config"
	"github.com/Brownie44l1/agri-api/internal/crop"
	"github.com/Brownie44l1/agri-api/internal/disease"
	"github.com/Brownie44l1/agri-api/internal/handlers"
	"github.com/Brownie44l1/agri-api/internal/imaging"
	"github.com/Brownie44l1/agri-api/internal/logger"
	"github.com/Brownie44l1/agri-api/internal/metrics"
	"github.com/Brownie44l1/agri-api/internal/model"
	"github.com/Brownie44l1/agri-api/internal/remedy"
	"github.com/Brownie44l1/agri-api/internal/vocab"
)

// Bundle owns the predictors loaded for one process. Each pipeline loads
// independently; one failing leaves the other usable.
type Bundle struct {
	cfg       config.Config
	Pipelines handlers.Pipelines
	Remedies  *remedy.Table

	runtime    *model.Runtime
	runtimeErr error
	closers    []func()
}

func NewBundle(cfg config.Config) *Bundle {
	return &Bundle{cfg: cfg, Remedies: remedy.Empty()}
}

// Load builds a bundle with the remedies table and both pipelines.
func Load(cfg config.Config) *Bundle {
	b := NewBundle(cfg)
	b.LoadRemedies()
	b.LoadDisease()
	b.LoadCrop()
	return b
}

// onnx initializes the shared runtime on first use.
func (b *Bundle) onnx() (*model.Runtime, error) {
	if b.runtime != nil || b.runtimeErr != nil {
		return b.runtime, b.runtimeErr
	}
	rt, err := model.NewRuntime(b.cfg.Models.ONNXLibrary)
	if err != nil {
		b.runtimeErr = errors.Wrap(model.ErrModelUnavailable, err.Error())
		return nil, b.runtimeErr
	}
	b.runtime = rt
	return rt, nil
}

func (b *Bundle) LoadRemedies() {
	if b.cfg.Remedies == "" {
		return
	}
	table, err := remedy.Load(b.cfg.Remedies)
	if err != nil {
		logger.Warnf("remedies not loaded, using fallback text: %v", err)
	} else {
		logger.Infof("loaded %d remedies from %s", table.Len(), table.Source())
	}
	b.Remedies = table
}

func (b *Bundle) LoadDisease() {
	c, err := b.loadDisease()
	if err != nil {
		logger.Errorf("disease pipeline unavailable: %v", err)
	}
	b.Pipelines.Disease, b.Pipelines.DiseaseError = c, err
	metrics.SetReady(metrics.DiseasePipeline, c != nil)
}

func (b *Bundle) loadDisease() (*disease.Classifier, error) {
	path := b.cfg.Models.Resolve(b.cfg.Models.Disease)
	if err := model.CheckArtifact(path); err != nil {
		return nil, err
	}

	meta, err := model.LoadImageMetadata(b.cfg.Models.Resolve(b.cfg.Models.DiseaseMetadata))
	if err != nil {
		return nil, errors.Wrap(model.ErrModelUnavailable, err.Error())
	}
	layout, err := imaging.ParseLayout(meta.Layout)
	if err != nil {
		return nil, errors.Wrap(model.ErrModelUnavailable, err.Error())
	}

	rt, err := b.onnx()
	if err != nil {
		return nil, err
	}
	session, err := model.NewImageSession(rt, path, meta)
	if err != nil {
		return nil, err
	}

	c, err := disease.New(session, b.Remedies, disease.Options{ImageSize: meta.ImageSize, Layout: layout})
	if err != nil {
		session.Close()
		return nil, err
	}
	b.closers = append(b.closers, session.Close)
	logger.Infof("disease model loaded from %s (%s %v)", path, layout, meta.InputShape)
	return c, nil
}

func (b *Bundle) LoadCrop() {
	r, err := b.loadCrop()
	if err != nil {
		logger.Errorf("crop pipeline unavailable: %v", err)
	}
	b.Pipelines.Crop, b.Pipelines.CropError = r, err
	metrics.SetReady(metrics.CropPipeline, r != nil)
}

func (b *Bundle) loadCrop() (*crop.Recommender, error) {
	path := b.cfg.Models.Resolve(b.cfg.Models.Crop)
	if err := model.CheckArtifact(path); err != nil {
		return nil, err
	}

	var rt *model.Runtime
	if model.IsONNX(path) {
		var err error
		if rt, err = b.onnx(); err != nil {
			return nil, err
		}
	}
	p, err := model.LoadTabularPredictor(rt, path, b.cfg.Models.Resolve(b.cfg.Models.CropMetadata), vocab.CropLabels[:])
	if err != nil {
		return nil, err
	}

	closer, _ := p.(interface{ Close() })
	r, err := crop.New(p)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	if closer != nil {
		b.closers = append(b.closers, closer.Close)
	}
	logger.Infof("crop model loaded from %s", path)
	return r, nil
}

// Close releases every session, then the runtime.
func (b *Bundle) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
	if err := b.runtime.Close(); err != nil {
		logger.Warnf("failed to destroy ONNX environment: %v", err)
	}
	b.runtime = nil
}
