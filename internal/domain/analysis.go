package domain

// AgeRange keeps the provider's key casing so existing clients reading
// ageRange.Low/High keep working.
type AgeRange struct {
	Low  int `json:"Low"`
	High int `json:"High"`
}

// Midpoint returns the rounded middle of the range.
func (a AgeRange) Midpoint() int {
	sum := a.Low + a.High
	// round half up, matching Math.round on positive values
	return (sum + 1) / 2
}

type Gender struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

type Emotion struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Feature is a boolean facial attribute with the provider's confidence.
type Feature struct {
	Value      bool    `json:"value"`
	Confidence float64 `json:"confidence"`
}

// FaceFeatures holds optional feature flags. A nil entry means the
// provider did not report that attribute.
type FaceFeatures struct {
	Smile      *Feature `json:"smile"`
	Eyeglasses *Feature `json:"eyeglasses"`
	Sunglasses *Feature `json:"sunglasses"`
	Beard      *Feature `json:"beard"`
	Mustache   *Feature `json:"mustache"`
	EyesOpen   *Feature `json:"eyesOpen"`
	MouthOpen  *Feature `json:"mouthOpen"`
}

type Quality struct {
	Brightness float64 `json:"brightness"`
	Sharpness  float64 `json:"sharpness"`
}

type BoundingBox struct {
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
}

// FaceAttributes is the simplified, client-facing view of one detected face.
// Emotions are always sorted by descending confidence.
type FaceAttributes struct {
	FaceID      int          `json:"faceId"`
	AgeRange    AgeRange     `json:"ageRange"`
	Gender      Gender       `json:"gender"`
	Emotions    []Emotion    `json:"emotions"`
	Attributes  FaceFeatures `json:"attributes"`
	Quality     Quality      `json:"quality"`
	Confidence  float64      `json:"confidence"`
	BoundingBox BoundingBox  `json:"boundingBox"`
}

// TopEmotion returns the highest-confidence emotion, or false when the
// record carries none.
func (f FaceAttributes) TopEmotion() (Emotion, bool) {
	if len(f.Emotions) == 0 {
		return Emotion{}, false
	}
	return f.Emotions[0], true
}

// Analysis is the response body of POST /api/analyze.
type Analysis struct {
	Success       bool             `json:"success"`
	FacesDetected int              `json:"facesDetected"`
	Results       []FaceAttributes `json:"results,omitempty"`
	Message       string           `json:"message,omitempty"`
}

const NoFacesMessage = "No faces detected in the image"
