package model

import (
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ImageSession runs an ONNX image classifier with pre-allocated input and
// output tensors. Predict calls are serialized.
type ImageSession struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     ImageMetadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewImageSession loads the artifact at modelPath. A missing artifact is
// reported as ErrModelUnavailable before the runtime is touched.
func NewImageSession(rt *Runtime, modelPath string, metadata ImageMetadata) (*ImageSession, error) {
	if err := CheckArtifact(modelPath); err != nil {
		return nil, err
	}
	if err := rt.ready(); err != nil {
		return nil, err
	}
	if len(metadata.OutputShape) == 0 || len(metadata.InputShape) == 0 {
		return nil, errors.New("metadata must declare input and output shapes")
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "failed to create output tensor")
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrapf(ErrModelUnavailable, "failed to create ONNX session: %v", err)
	}

	return &ImageSession{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// InputSize is the number of float32 values one Predict call expects.
func (s *ImageSession) InputSize() int {
	return int(ort.NewShape(s.Metadata.InputShape...).FlattenedSize())
}

// OutputWidth is the number of class scores per prediction.
func (s *ImageSession) OutputWidth() int {
	return int(s.Metadata.OutputShape[len(s.Metadata.OutputShape)-1])
}

// Classes returns the class names declared in the metadata, if any.
func (s *ImageSession) Classes() []string {
	return s.Metadata.Classes
}

// Predict runs one inference and returns a copy of the score vector.
func (s *ImageSession) Predict(input []float32) ([]float32, error) {
	if len(input) != s.InputSize() {
		return nil, errors.Errorf("expected %d input values, got %d", s.InputSize(), len(input))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), input)
	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}

	out := s.outputTensor.GetData()
	scores := make([]float32, s.OutputWidth())
	copy(scores, out)
	return scores, nil
}

func (s *ImageSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}
