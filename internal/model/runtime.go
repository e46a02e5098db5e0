package model

import (
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Runtime owns the process-wide ONNX Runtime environment. Create one before
// loading any ONNX artifact and close it after every session is closed.
type Runtime struct {
	mu     sync.Mutex
	closed bool
}

// NewRuntime initializes the environment. libraryPath overrides the location
// of the onnxruntime shared library; empty keeps the platform default.
func NewRuntime(libraryPath string) (*Runtime, error) {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "failed to initialize ONNX environment")
		}
	}
	return &Runtime{}, nil
}

func (rt *Runtime) ready() error {
	if rt == nil {
		return errors.Wrap(ErrModelUnavailable, "onnx runtime not initialized")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return errors.Wrap(ErrModelUnavailable, "onnx runtime closed")
	}
	return nil
}

func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return nil
	}
	rt.closed = true
	return ort.DestroyEnvironment()
}
