package model

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/ensemble"
)

// ClassColumn is the class attribute appended to every row handed to
// golearn. The request row carries a placeholder value; the forest
// overwrites it.
const ClassColumn = "label"

type forestRow struct {
	N           float64 `csv:"N"`
	P           float64 `csv:"P"`
	K           float64 `csv:"K"`
	Temperature float64 `csv:"temperature"`
	Humidity    float64 `csv:"humidity"`
	PH          float64 `csv:"ph"`
	Rainfall    float64 `csv:"rainfall"`
	Label       string  `csv:"label"`
}

type forestModel interface {
	Predict(base.FixedDataGrid) (base.FixedDataGrid, error)
}

// ForestPredictor serves a golearn random forest saved with Save. Request
// rows are parsed against a template whose class attribute must list the
// training class values in training order.
type ForestPredictor struct {
	mu          sync.Mutex
	model       forestModel
	template    *base.DenseInstances
	placeholder string
	classes     []string
}

// NewForestPredictor loads the forest at modelPath. templatePath, when it
// names a .csv file, is parsed as a sample of the training data and its
// attributes become the template; otherwise the class attribute is seeded
// with classes in order.
func NewForestPredictor(modelPath, templatePath string, classes []string) (*ForestPredictor, error) {
	if err := CheckArtifact(modelPath); err != nil {
		return nil, err
	}

	template, err := loadForestTemplate(templatePath, classes)
	if err != nil {
		return nil, err
	}

	rf := ensemble.NewRandomForest(0, 0)
	if err := rf.Load(modelPath); err != nil {
		return nil, errors.Wrapf(ErrModelUnavailable, "load forest %s: %v", modelPath, err)
	}
	return newForestPredictor(rf, template, classes)
}

func newForestPredictor(m forestModel, template *base.DenseInstances, classes []string) (*ForestPredictor, error) {
	placeholder, err := placeholderClass(template)
	if err != nil {
		return nil, err
	}
	return &ForestPredictor{
		model:       m,
		template:    template,
		placeholder: placeholder,
		classes:     classes,
	}, nil
}

func loadForestTemplate(path string, classes []string) (*base.DenseInstances, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return ForestTemplate(classes)
	}
	if err := CheckArtifact(path); err != nil {
		return nil, err
	}
	template, err := base.ParseCSVToInstances(path, true)
	if err != nil {
		return nil, errors.Wrapf(ErrModelUnavailable, "forest template %s: %v", path, err)
	}
	return template, nil
}

// ForestTemplate builds an empty grid with the feature columns followed by a
// categorical class column holding classes in order.
func ForestTemplate(classes []string) (*base.DenseInstances, error) {
	if len(classes) == 0 {
		return nil, errors.Wrap(ErrModelUnavailable, "forest needs at least one class")
	}

	inst := base.NewDenseInstances()
	for _, name := range FeatureNames {
		inst.AddAttribute(base.NewFloatAttribute(name))
	}

	label := base.NewCategoricalAttribute()
	label.SetName(ClassColumn)
	for _, c := range classes {
		label.GetSysValFromString(c)
	}
	inst.AddAttribute(label)
	if err := inst.AddClassAttribute(label); err != nil {
		return nil, errors.Wrap(err, "add class attribute")
	}
	return inst, nil
}

// placeholderClass picks a class value the template already knows, so
// parsing a request row never grows the class attribute.
func placeholderClass(template *base.DenseInstances) (string, error) {
	classAttrs := template.AllClassAttributes()
	if len(classAttrs) != 1 {
		return "", errors.Wrapf(ErrModelUnavailable, "forest template has %d class attributes", len(classAttrs))
	}
	if cat, ok := classAttrs[0].(*base.CategoricalAttribute); ok {
		values := cat.GetValues()
		if len(values) == 0 {
			return "", errors.Wrap(ErrModelUnavailable, "forest template has no class values")
		}
		return values[0], nil
	}
	return "0", nil
}

// EncodeRow renders rec as a two-line CSV document in contract column order
// followed by the class column set to label.
func EncodeRow(rec FeatureRecord, label string) (string, error) {
	rows := []*forestRow{{
		N:           rec.N,
		P:           rec.P,
		K:           rec.K,
		Temperature: rec.Temperature,
		Humidity:    rec.Humidity,
		PH:          rec.PH,
		Rainfall:    rec.Rainfall,
		Label:       label,
	}}
	return gocsv.MarshalString(rows)
}

// Instances parses rec into a one-row grid sharing the predictor's
// attributes.
func (f *ForestPredictor) Instances(rec FeatureRecord) (*base.DenseInstances, error) {
	str, err := EncodeRow(rec, f.placeholder)
	if err != nil {
		return nil, errors.Wrap(err, "encode features")
	}
	inst, err := base.ParseCSVToTemplatedInstancesFromReader(strings.NewReader(str), true, f.template)
	if err != nil {
		return nil, errors.Wrap(err, "parse features")
	}
	return inst, nil
}

func (f *ForestPredictor) PredictIndex(rec FeatureRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inst, err := f.Instances(rec)
	if err != nil {
		return 0, err
	}

	out, err := f.model.Predict(inst)
	if err != nil {
		return 0, errors.Wrap(err, "inference failed")
	}
	if _, rows := out.Size(); rows < 1 {
		return 0, errors.New("forest returned no prediction")
	}
	return f.resolve(base.GetClass(out, 0))
}

// resolve accepts either a 0-based index or a class name.
func (f *ForestPredictor) resolve(class string) (int, error) {
	class = strings.TrimSpace(class)
	if i, err := strconv.Atoi(class); err == nil {
		return i, nil
	}
	if v, err := strconv.ParseFloat(class, 64); err == nil && v == float64(int(v)) {
		return int(v), nil
	}
	for i, c := range f.classes {
		if strings.EqualFold(c, class) {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrVocabularyMismatch, "unknown class %q", class)
}
