package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

type AgeRange struct {
	Low  int `json:"Low" example:"25"`
	High int `json:"High" example:"33"`
}

type ValueConfidence struct {
	Value      string  `json:"value" example:"Female"`
	Confidence float64 `json:"confidence" example:"99.71"`
}

type EmotionData struct {
	Type       string  `json:"type" example:"HAPPY"`
	Confidence float64 `json:"confidence" example:"97.4"`
}

type FeatureData struct {
	Value      bool    `json:"value" example:"true"`
	Confidence float64 `json:"confidence" example:"98.2"`
}

type FeaturesData struct {
	Smile      *FeatureData `json:"smile"`
	Eyeglasses *FeatureData `json:"eyeglasses"`
	Sunglasses *FeatureData `json:"sunglasses"`
	Beard      *FeatureData `json:"beard"`
	Mustache   *FeatureData `json:"mustache"`
	EyesOpen   *FeatureData `json:"eyesOpen"`
	MouthOpen  *FeatureData `json:"mouthOpen"`
}

type QualityData struct {
	Brightness float64 `json:"brightness" example:"81.3"`
	Sharpness  float64 `json:"sharpness" example:"92.22"`
}

type BoundingBoxData struct {
	Width  float64 `json:"Width" example:"0.31"`
	Height float64 `json:"Height" example:"0.42"`
	Left   float64 `json:"Left" example:"0.35"`
	Top    float64 `json:"Top" example:"0.18"`
}

type FaceResult struct {
	FaceID      int             `json:"faceId" example:"1"`
	AgeRange    AgeRange        `json:"ageRange"`
	Gender      ValueConfidence `json:"gender"`
	Emotions    []EmotionData   `json:"emotions"`
	Attributes  FeaturesData    `json:"attributes"`
	Quality     QualityData     `json:"quality"`
	Confidence  float64         `json:"confidence" example:"99.99"`
	BoundingBox BoundingBoxData `json:"boundingBox"`
}

// AnalyzeResponse is returned for both face and no-face outcomes.
type AnalyzeResponse struct {
	Success       bool         `json:"success" example:"true"`
	FacesDetected int          `json:"facesDetected" example:"1"`
	Results       []FaceResult `json:"results,omitempty"`
	Message       string       `json:"message,omitempty" example:"No faces detected in the image"`
}

type ErrorResponse struct {
	Code    string `json:"code" example:"ANALYSIS_FAILED"`
	Message string `json:"message" example:"Failed to analyze image"`
	Details string `json:"details,omitempty" example:"ThrottlingException: Rate exceeded"`
}

type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

type PushKeyResponse struct {
	PublicKey string `json:"publicKey" example:"BElh..."`
	Enabled   bool   `json:"enabled" example:"true"`
}

type EmployeeResponse struct {
	ID         string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name       string `json:"name" example:"Ana Souza"`
	Gender     string `json:"gender" example:"Female"`
	Age        int    `json:"age" example:"31"`
	Department string `json:"department" example:"Finance"`
	HasPhoto   bool   `json:"hasPhoto" example:"true"`
	CreatedAt  string `json:"createdAt" example:"2024-01-01T00:00:00Z"`
	UpdatedAt  string `json:"updatedAt" example:"2024-01-01T00:00:00Z"`
}

type EmptyResponse struct{}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "facemood API",
		Version:     "v1.0.0",
		Description: "Face attribute analysis for the attendance kiosk, with push notifications, HR records and Spotify playback",
		Host:        "localhost:3000",
		Path:        "/api",
	})

	idParam := parameter.StrParam("id", parameter.Path, parameter.WithDescription("Employee ID"))
	internalErr := response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	unauthorized := response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Authentication required"}, "401", "Unauthorized")

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.POST,
			"/analyze",
			endpoint.WithTags("Analysis"),
			endpoint.WithSummary("Analyze faces in an image"),
			endpoint.WithDescription("Multipart form with a single \"image\" file. Zero faces is a 200 with facesDetected=0."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalyzeResponse{}, "200", "Analysis completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_IMAGE", Message: "No image uploaded"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "ANALYSIS_FAILED", Message: "Failed to analyze image", Details: "cause"}, "500", "Internal Server Error"),
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/subscribe",
			endpoint.WithTags("Push"),
			endpoint.WithSummary("Register a push subscription"),
			endpoint.WithDescription("Stores a browser PushSubscription. Re-sending the same endpoint is a no-op."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SuccessResponse{}, "200", "Subscription stored"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_SUBSCRIPTION", Message: "Invalid subscription: endpoint is required"}, "400", "Bad Request"),
				internalErr,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/push/key",
			endpoint.WithTags("Push"),
			endpoint.WithSummary("VAPID public key"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PushKeyResponse{}, "200", "Key returned"),
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/hr/login",
			endpoint.WithTags("HR"),
			endpoint.WithSummary("HR login"),
			endpoint.WithDescription("Sets the hr_session HttpOnly cookie on success."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SuccessResponse{}, "200", "Logged in"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Username and password required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}, "401", "Unauthorized"),
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/hr/logout",
			endpoint.WithTags("HR"),
			endpoint.WithSummary("HR logout"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SuccessResponse{}, "200", "Logged out"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/employees",
			endpoint.WithTags("HR"),
			endpoint.WithSummary("List employees"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]EmployeeResponse{}, "200", "Employees"),
			}),
			endpoint.WithErrors([]response.Response{unauthorized, internalErr}),
		),

		endpoint.New(
			endpoint.POST,
			"/employees",
			endpoint.WithTags("HR"),
			endpoint.WithSummary("Create an employee"),
			endpoint.WithDescription("Multipart fields name, gender, age, department and an optional \"image\" file."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmployeeResponse{}, "201", "Employee created"),
			}),
			endpoint.WithErrors([]response.Response{
				unauthorized,
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed", Details: "name: required"}, "422", "Unprocessable Entity"),
			}),
		),

		endpoint.New(
			endpoint.PUT,
			"/employees/{id}",
			endpoint.WithTags("HR"),
			endpoint.WithSummary("Update an employee"),
			endpoint.WithDescription("Partial update. Multipart (to replace the photo) or JSON."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(idParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmployeeResponse{}, "200", "Employee updated"),
			}),
			endpoint.WithErrors([]response.Response{
				unauthorized,
				response.New(ErrorResponse{Code: "EMPLOYEE_NOT_FOUND", Message: "Employee not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
			}),
		),

		endpoint.New(
			endpoint.DELETE,
			"/employees/{id}",
			endpoint.WithTags("HR"),
			endpoint.WithSummary("Delete an employee"),
			endpoint.WithParams(idParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Employee deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				unauthorized,
				response.New(ErrorResponse{Code: "EMPLOYEE_NOT_FOUND", Message: "Employee not found"}, "404", "Not Found"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/employees/{id}/photo",
			endpoint.WithTags("HR"),
			endpoint.WithSummary("Employee photo"),
			endpoint.WithParams(idParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "200", "Image bytes"),
			}),
			endpoint.WithErrors([]response.Response{
				unauthorized,
				response.New(ErrorResponse{Code: "PHOTO_NOT_FOUND", Message: "Photo not found"}, "404", "Not Found"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/spotify/login",
			endpoint.WithTags("Spotify"),
			endpoint.WithSummary("Start Spotify authorization"),
			endpoint.WithDescription("Redirects to the Spotify authorize page."),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "302", "Redirect"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/spotify/callback",
			endpoint.WithTags("Spotify"),
			endpoint.WithSummary("Spotify authorization callback"),
			endpoint.WithParams(
				parameter.StrParam("code", parameter.Query, parameter.WithDescription("Authorization code")),
				parameter.StrParam("state", parameter.Query, parameter.WithDescription("State issued by /spotify/login")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "302", "Redirect to /"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "STATE_MISMATCH", Message: "State mismatch"}, "400", "Bad Request"),
				internalErr,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/spotify/play",
			endpoint.WithTags("Spotify"),
			endpoint.WithSummary("Start a playlist"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SuccessResponse{}, "200", "Playback started"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SPOTIFY_AUTH_REQUIRED", Message: "Re-authentication required."}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "SPOTIFY_PREMIUM_REQUIRED", Message: "Spotify Premium required for playback control."}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "SPOTIFY_NO_DEVICE", Message: "No active Spotify device. Open Spotify on a device and try again."}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "SPOTIFY_PLAYBACK_FAILED", Message: "Failed to start playback"}, "500", "Internal Server Error"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
