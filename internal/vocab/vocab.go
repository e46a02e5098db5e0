// Package vocab holds the ordered label vocabularies the predictors were
// trained against. Index position is the contract with each predictor's
// output; the arrays must never be reordered.
package vocab

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// NumDiseases is the width of the leaf classifier's output layer.
	NumDiseases = 38

	// NumCrops is the number of classes of the crop classifier.
	NumCrops = 22

	// Separator splits a disease label into plant and condition.
	Separator = "__"
)

// DiseaseLabels in the leaf classifier's training-time class order.
var DiseaseLabels = [NumDiseases]string{
	"Apple__Apple_scab", "Apple__Black_rot", "Apple__Cedar_apple_rust", "Apple__healthy",
	"Blueberry__healthy", "Cherry_(including_sour)__Powdery_mildew", "Cherry_(including_sour)__healthy",
	"Corn_(maize)__Cercospora_leaf_spot Gray_leaf_spot", "Corn_(maize)__Common_rust_",
	"Corn_(maize)__Northern_Leaf_Blight", "Corn_(maize)__healthy", "Grape__Black_rot",
	"Grape__Esca_(Black_Measles)", "Grape__Leaf_blight_(Isariopsis_Leaf_Spot)", "Grape__healthy",
	"Orange__Haunglongbing_(Citrus_greening)", "Peach__Bacterial_spot", "Peach__healthy",
	"Pepper,_bell__Bacterial_spot", "Pepper,_bell__healthy", "Potato__Early_blight",
	"Potato__Late_blight", "Potato__healthy", "Raspberry__healthy", "Soybean__healthy",
	"Squash__Powdery_mildew", "Strawberry__Leaf_scorch", "Strawberry__healthy",
	"Tomato__Bacterial_spot", "Tomato__Early_blight", "Tomato__Late_blight",
	"Tomato__Leaf_Mold", "Tomato__Septoria_leaf_spot",
	"Tomato__Spider_mites Two-spotted_spider_mite", "Tomato__Target_Spot",
	"Tomato__Tomato_Yellow_Leaf_Curl_Virus", "Tomato__Tomato_mosaic_virus", "Tomato__healthy",
}

// CropLabels in the label-encoded order of the crop recommendation dataset.
var CropLabels = [NumCrops]string{
	"apple", "banana", "blackgram", "chickpea", "coconut", "coffee", "cotton", "grapes",
	"jute", "kidneybeans", "lentil", "maize", "mango", "mothbeans", "mungbean", "muskmelon",
	"orange", "papaya", "pigeonpeas", "pomegranate", "rice", "watermelon",
}

// Disease returns the raw label at index i. ok is false when i falls outside
// the vocabulary.
func Disease(i int) (label string, ok bool) {
	if i < 0 || i >= NumDiseases {
		return "", false
	}
	return DiseaseLabels[i], true
}

// Crop returns the crop name at index i.
func Crop(i int) (name string, ok bool) {
	if i < 0 || i >= NumCrops {
		return "", false
	}
	return CropLabels[i], true
}

// FormatDiseaseName renders a raw label for display:
//
//	Apple__healthy       -> Apple (Healthy)
//	Tomato__Early_blight -> Tomato: Early blight
//
// Labels without a separator are returned unchanged.
func FormatDiseaseName(label string) string {
	parts := strings.Split(label, Separator)
	if len(parts) < 2 {
		return label
	}

	plant := strings.ReplaceAll(parts[0], "_", " ")
	condition := strings.ReplaceAll(parts[1], "_", " ")
	if IsHealthy(condition) {
		return plant + " (Healthy)"
	}
	return plant + ": " + condition
}

// IsHealthy reports whether a condition token names a healthy leaf.
func IsHealthy(condition string) bool {
	return strings.EqualFold(condition, "healthy")
}

// SplitDisease returns the plant and condition tokens of a raw label.
func SplitDisease(label string) (plant, condition string) {
	parts := strings.Split(label, Separator)
	if len(parts) < 2 {
		return label, ""
	}
	return parts[0], parts[1]
}

// DisplayCrop upper-cases the first letter of a crop name and lower-cases
// the rest.
func DisplayCrop(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + strings.ToLower(name[size:])
}

// SupportedPlants lists each plant in the disease vocabulary once, in
// vocabulary order, with parenthesised qualifiers dropped.
func SupportedPlants() []string {
	seen := make(map[string]bool)
	var plants []string
	for _, label := range DiseaseLabels {
		plant, _ := SplitDisease(label)
		plant = strings.ReplaceAll(plant, "_", " ")
		if i := strings.IndexAny(plant, "(,"); i > 0 {
			plant = plant[:i]
		}
		plant = strings.TrimSpace(plant)
		if !seen[plant] {
			seen[plant] = true
			plants = append(plants, plant)
		}
	}
	return plants
}
