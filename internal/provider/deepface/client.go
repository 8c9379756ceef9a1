package deepface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the configuration for the DeepFace client
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Detector string
}

func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:5005",
		Timeout:  30 * time.Second,
		Detector: "retinaface",
	}
}

// Client is the HTTP client for the DeepFace API
type Client struct {
	httpClient *http.Client
	config     Config
}

func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// statusError carries a non-2xx DeepFace reply.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.Status, e.Body)
}

// Analyze calls POST /analyze for age, gender and emotion. A single attempt
// is made; callers decide what to do with failures.
func (c *Client) Analyze(ctx context.Context, imageBase64 string) (*AnalyzeResponse, error) {
	req := AnalyzeRequest{
		Img:              imageBase64,
		Actions:          []string{"age", "gender", "emotion"},
		Detector:         c.config.Detector,
		EnforceDetection: true,
	}

	var resp AnalyzeResponse
	if err := c.doRequest(ctx, http.MethodPost, "/analyze", req, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.Status < 500 && isNoFaceMessage(se.Body) {
			return &AnalyzeResponse{}, nil
		}
		return nil, err
	}

	return &resp, nil
}

// isNoFaceMessage recognises the enforce_detection failure, which DeepFace
// reports as a client error rather than an empty result.
func isNoFaceMessage(body string) bool {
	return strings.Contains(strings.ToLower(body), "face could not be detected")
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrDeepFaceTimeout, ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrDeepFaceUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &statusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}
