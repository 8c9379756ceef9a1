package deepface

// AnalyzeRequest for POST /analyze
type AnalyzeRequest struct {
	Img              string   `json:"img"`     // base64 encoded image
	Actions          []string `json:"actions"` // "age", "gender", "emotion", "race"
	Detector         string   `json:"detector_backend"`
	EnforceDetection bool     `json:"enforce_detection"`
}

// AnalyzeResponse from POST /analyze
type AnalyzeResponse struct {
	Results []AnalyzeResult `json:"results"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// AnalyzeResult is one face. Gender and emotion maps hold percentages.
type AnalyzeResult struct {
	Region         FacialArea         `json:"region"`
	FaceConfidence float64            `json:"face_confidence"`
	Age            int                `json:"age"`
	Gender         map[string]float64 `json:"gender"`
	DominantGender string             `json:"dominant_gender"`
	Emotion        map[string]float64 `json:"emotion"`
}
