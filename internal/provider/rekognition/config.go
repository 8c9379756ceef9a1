package rekognition

import "time"

// Config holds configuration for the AWS Rekognition provider
type Config struct {
	// Region is the AWS region where Rekognition is called (e.g., "us-east-1")
	Region string

	// Timeout bounds a single DetectFaces call. Zero means the caller's
	// context deadline alone applies.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Region:  "us-east-1",
		Timeout: 15 * time.Second,
	}
}
