package crop

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Brownie44l1/agri-api/internal/model"
)

var ErrInvalidSample = errors.New("invalid soil/climate sample")

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Sample is one set of soil and climate measurements. Every field is
// required; zero is a valid value, so presence is not checked by tags.
type Sample struct {
	N           float64 `json:"N" validate:"gte=0,lte=150"`
	P           float64 `json:"P" validate:"gte=0,lte=150"`
	K           float64 `json:"K" validate:"gte=0,lte=200"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=50"`
	Humidity    float64 `json:"humidity" validate:"gte=0,lte=100"`
	PH          float64 `json:"ph" validate:"gte=0,lte=14"`
	Rainfall    float64 `json:"rainfall" validate:"gte=0,lte=3000"`
}

// Bound documents the accepted closed range of one input.
type Bound struct {
	Field   string  `json:"field"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Bounds mirrors the validate tags on Sample, in feature order.
var Bounds = []Bound{
	{Field: "N", Unit: "kg/ha", Min: 0, Max: 150, Default: 50},
	{Field: "P", Unit: "kg/ha", Min: 0, Max: 150, Default: 50},
	{Field: "K", Unit: "kg/ha", Min: 0, Max: 200, Default: 50},
	{Field: "temperature", Unit: "°C", Min: 0, Max: 50, Default: 25},
	{Field: "humidity", Unit: "%", Min: 0, Max: 100, Default: 65},
	{Field: "ph", Min: 0, Max: 14, Default: 6.5},
	{Field: "rainfall", Unit: "mm", Min: 0, Max: 3000, Default: 1000},
}

// DefaultSample holds the starting values of the input form.
func DefaultSample() Sample {
	return Sample{N: 50, P: 50, K: 50, Temperature: 25, Humidity: 65, PH: 6.5, Rainfall: 1000}
}

// Validate reports every field outside its documented range.
func (s Sample) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(ErrInvalidSample, err.Error())
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return errors.Wrapf(ErrInvalidSample, "out of range: %s", strings.Join(fields, ", "))
}

// Features assembles the classifier's single-row input.
func (s Sample) Features() model.FeatureRecord {
	return model.FeatureRecord{
		N:           s.N,
		P:           s.P,
		K:           s.K,
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		PH:          s.PH,
		Rainfall:    s.Rainfall,
	}
}
