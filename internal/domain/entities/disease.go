package entities

import "strings"

// DiseaseClasses is the closed label set produced by the classifier, in output order.
var DiseaseClasses = []string{
	"Apple Scab", "Apple Black Rot", "Apple Cedar Rust", "Apple Healthy",
	"Blueberry Healthy", "Cherry Healthy", "Cherry Powdery Mildew",
	"Corn Gray Leaf Spot", "Corn Common Rust", "Corn Healthy",
	"Corn Northern Leaf Blight", "Grape Black Rot", "Grape Esca",
	"Grape Healthy", "Grape Leaf Blight", "Orange Haunglongbing",
	"Peach Bacterial Spot", "Peach Healthy", "Pepper Bacterial Spot",
	"Pepper Healthy", "Potato Early Blight", "Potato Healthy",
	"Potato Late Blight", "Raspberry Healthy", "Soybean Healthy",
	"Squash Powdery Mildew", "Strawberry Healthy", "Strawberry Leaf Scorch",
	"Tomato Bacterial Spot", "Tomato Early Blight", "Tomato Healthy",
	"Tomato Late Blight", "Tomato Leaf Mold", "Tomato Septoria Leaf Spot",
	"Tomato Spider Mites", "Tomato Target Spot", "Tomato Mosaic Virus",
	"Tomato Yellow Leaf Curl Virus",
}

// DemoDiseases is the curated subset the demo predictor draws from.
var DemoDiseases = []string{
	"Tomato Early Blight",
	"Potato Late Blight",
	"Apple Scab",
	"Tomato Healthy",
	"Blueberry Healthy",
}

// DiseaseIndex returns the classifier output position of name, or -1.
func DiseaseIndex(name string) int {
	for i, class := range DiseaseClasses {
		if class == name {
			return i
		}
	}
	return -1
}

// DiseaseClass describes one label for catalog search.
type DiseaseClass struct {
	Name    string `json:"name"`
	Crop    string `json:"crop"`
	Healthy bool   `json:"healthy"`
}

// NewDiseaseClass splits a label into crop and condition.
func NewDiseaseClass(name string) DiseaseClass {
	crop, condition, _ := strings.Cut(name, " ")
	return DiseaseClass{
		Name:    name,
		Crop:    crop,
		Healthy: condition == "Healthy",
	}
}
