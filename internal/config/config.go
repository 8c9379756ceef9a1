package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port           int    `envconfig:"PORT" default:"3000"`
	Environment    string `envconfig:"ENV" default:"development"`
	MaxUploadBytes int    `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	AnalyzeLimit   int    `envconfig:"ANALYZE_RATE_LIMIT" default:"60"`

	// Database (HR module). Empty disables the HR routes.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Provider
	ProviderType string `envconfig:"PROVIDER_TYPE" default:"rekognition"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`
	DeepFaceURL  string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`

	// Web Push
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubject    string `envconfig:"VAPID_SUBJECT" default:"mailto:admin@example.com"`
	PushIcon        string `envconfig:"PUSH_ICON" default:"/network-detection.svg"`
	PushStore       string `envconfig:"PUSH_STORE" default:"memory"`
	RedisAddr       string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	// HR sessions
	HRSessionSecret string        `envconfig:"HR_SESSION_SECRET"`
	HRSessionTTL    time.Duration `envconfig:"HR_SESSION_TTL" default:"8h"`

	// Spotify
	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
	SpotifyRedirectURI  string `envconfig:"SPOTIFY_REDIRECT_URI"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.ProviderType {
	case "rekognition", "deepface", "mock":
	default:
		return fmt.Errorf("load config: unknown PROVIDER_TYPE %q", c.ProviderType)
	}
	switch c.PushStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("load config: unknown PUSH_STORE %q", c.PushStore)
	}
	if c.DatabaseURL != "" && c.HRSessionSecret == "" {
		return errors.New("load config: HR_SESSION_SECRET is required when DATABASE_URL is set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func (c *Config) HREnabled() bool {
	return c.DatabaseURL != ""
}

func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != "" && c.SpotifyRedirectURI != ""
}
