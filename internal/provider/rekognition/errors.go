package rekognition

import "errors"

var (
	// ErrImageTooLarge is returned for payloads above the DetectFaces byte limit.
	ErrImageTooLarge = errors.New("image exceeds 5MB Rekognition limit")
)
