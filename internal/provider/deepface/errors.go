package deepface

import "errors"

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrDeepFaceTimeout     = errors.New("deepface request timeout")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
)
