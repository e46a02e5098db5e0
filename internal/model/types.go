package model

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ImageMetadata describes the tensors of an exported image classifier. It is
// read from a JSON file next to the ONNX artifact; every field has a default.
type ImageMetadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Layout      string   `json:"layout"`
	ImageSize   int      `json:"image_size"`
	Classes     []string `json:"classes"`
}

// DefaultImageMetadata matches a Keras model exported with channels-last input.
func DefaultImageMetadata() ImageMetadata {
	return ImageMetadata{
		InputName:   "input",
		OutputName:  "output",
		InputShape:  []int64{1, 224, 224, 3},
		OutputShape: []int64{1, 38},
		Layout:      "NHWC",
		ImageSize:   224,
	}
}

// TabularMetadata describes an exported tabular classifier.
type TabularMetadata struct {
	InputName  string `json:"input_name"`
	OutputName string `json:"output_name"`
	NumClasses int    `json:"num_classes"`
}

// DefaultTabularMetadata matches the names skl2onnx gives a classifier.
func DefaultTabularMetadata() TabularMetadata {
	return TabularMetadata{
		InputName:  "float_input",
		OutputName: "output_label",
	}
}

// LoadImageMetadata overlays the JSON file at path onto the defaults. An
// empty path or a missing file yields the defaults.
func LoadImageMetadata(path string) (ImageMetadata, error) {
	meta := DefaultImageMetadata()
	if err := readMetadata(path, &meta); err != nil {
		return meta, err
	}
	if meta.ImageSize == 0 && len(meta.InputShape) == 4 {
		if strings.EqualFold(meta.Layout, "NCHW") {
			meta.ImageSize = int(meta.InputShape[2])
		} else {
			meta.ImageSize = int(meta.InputShape[1])
		}
	}
	return meta, nil
}

func LoadTabularMetadata(path string) (TabularMetadata, error) {
	meta := DefaultTabularMetadata()
	err := readMetadata(path, &meta)
	return meta, err
}

func readMetadata(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read metadata")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to parse metadata")
	}
	return nil
}

// FeatureRecord is the single-row input of the crop classifier. Field order
// and csv names are the contract with the trained model.
type FeatureRecord struct {
	N           float64 `csv:"N"`
	P           float64 `csv:"P"`
	K           float64 `csv:"K"`
	Temperature float64 `csv:"temperature"`
	Humidity    float64 `csv:"humidity"`
	PH          float64 `csv:"ph"`
	Rainfall    float64 `csv:"rainfall"`
}

// FeatureNames lists FeatureRecord's columns in contract order.
var FeatureNames = []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}

// Values returns the features in contract order.
func (r FeatureRecord) Values() []float32 {
	return []float32{
		float32(r.N), float32(r.P), float32(r.K),
		float32(r.Temperature), float32(r.Humidity), float32(r.PH), float32(r.Rainfall),
	}
}
