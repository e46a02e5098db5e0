package model

import (
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// TabularSession runs an ONNX classifier exported from scikit-learn: a
// [1, 7] float input and an int64 label output.
type TabularSession struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     TabularMetadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[int64]
}

func NewTabularSession(rt *Runtime, modelPath string, metadata TabularMetadata) (*TabularSession, error) {
	if err := CheckArtifact(modelPath); err != nil {
		return nil, err
	}
	if err := rt.ready(); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(FeatureNames))))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}

	outputTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
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

	return &TabularSession{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// NumClasses is the class count declared in the metadata, 0 if unknown.
func (s *TabularSession) NumClasses() int {
	return s.Metadata.NumClasses
}

func (s *TabularSession) PredictIndex(rec FeatureRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), rec.Values())
	if err := s.session.Run(); err != nil {
		return 0, errors.Wrap(err, "inference failed")
	}
	return int(s.outputTensor.GetData()[0]), nil
}

func (s *TabularSession) Close() {
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
