package provider

import (
	"context"
	"errors"
)

// FaceAnalyzer detects faces and their attributes in a single image.
type FaceAnalyzer interface {
	// Name identifies the backend in logs, metrics and audit events.
	Name() string

	// DetectFaces returns every face found in the image. No faces is an
	// empty slice, not an error.
	DetectFaces(ctx context.Context, image []byte) ([]FaceDetail, error)
}

// FaceDetail is the raw, unrounded provider output for one face.
type FaceDetail struct {
	AgeLow           int
	AgeHigh          int
	Gender           string
	GenderConfidence float64
	Emotions         []Emotion
	Smile            *Flag
	Eyeglasses       *Flag
	Sunglasses       *Flag
	Beard            *Flag
	Mustache         *Flag
	EyesOpen         *Flag
	MouthOpen        *Flag
	Brightness       float64
	Sharpness        float64
	Confidence       float64
	BoundingBox      BoundingBox
}

type Emotion struct {
	Type       string
	Confidence float64
}

// Flag is a boolean attribute reported with a confidence percentage.
type Flag struct {
	Value      bool
	Confidence float64
}

// BoundingBox is expressed as ratios of the image dimensions.
type BoundingBox struct {
	Width  float64
	Height float64
	Left   float64
	Top    float64
}

var (
	ErrInvalidImage       = errors.New("invalid image")
	ErrInvalidResponse    = errors.New("malformed provider response")
	ErrUnavailable        = errors.New("face provider unavailable")
	ErrInvalidCredentials = errors.New("invalid or missing provider credentials")
)
