package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facemood/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facemood/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facemood/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facemood/internal/audit"
	"github.com/saturnino-fabrica-de-software/facemood/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facemood/internal/ws"
)

type Dependencies struct {
	Analysis handler.AnalysisService

	PushStore     handler.SubscriptionStore
	PushPublicKey string

	Hub     *ws.Hub
	Metrics *metrics.Metrics
	Audit   audit.Logger

	// HR and Sessions are nil when the HR module is disabled.
	HR         handler.HRService
	Sessions   middleware.SessionValidator
	SessionTTL time.Duration

	// Spotify is nil when no client credentials are configured.
	Spotify handler.SpotifyClient

	// ReadyChecks are pinged by /ready.
	ReadyChecks map[string]handler.Pinger

	AnalyzeLimit   int
	MaxUploadBytes int
	SecureCookies  bool
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "facemood",
		BodyLimit:    deps.MaxUploadBytes,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	healthHandler := handler.NewHealthHandler(r.deps.ReadyChecks, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps.Metrics != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(r.deps.Metrics.Handler()))
	}

	var events handler.EventPublisher
	if r.deps.Hub != nil {
		events = r.deps.Hub
	}
	pushHandler := handler.NewPushHandler(r.deps.PushStore, r.deps.PushPublicKey, events, r.deps.Audit, r.logger)
	r.app.Get("/sw.js", pushHandler.ServiceWorker)

	api := r.app.Group("/api")

	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max: r.deps.AnalyzeLimit,
	})
	analyzeHandler := handler.NewAnalyzeHandler(r.deps.Analysis, r.logger)
	api.Post("/analyze", r.rateLimiter.Handler(), analyzeHandler.Analyze)

	api.Post("/subscribe", pushHandler.Subscribe)
	api.Get("/push/key", pushHandler.PublicKey)

	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)

		r.app.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}

	if r.deps.HR != nil && r.deps.Sessions != nil {
		r.setupHRRoutes(api)
	}

	if r.deps.Spotify != nil {
		spotifyHandler := handler.NewSpotifyHandler(r.deps.Spotify, r.deps.SecureCookies, r.deps.Audit, r.logger)
		sp := api.Group("/spotify")
		sp.Get("/login", spotifyHandler.Login)
		sp.Get("/callback", spotifyHandler.Callback)
		sp.Post("/play", spotifyHandler.Play)
	}
}

func (r *Router) setupHRRoutes(api fiber.Router) {
	hrHandler := handler.NewHRHandler(r.deps.HR, r.deps.SessionTTL, r.deps.SecureCookies, r.logger)

	api.Post("/hr/login", hrHandler.Login)
	api.Post("/hr/logout", hrHandler.Logout)

	employees := api.Group("/employees", middleware.HRSession(r.deps.Sessions, r.logger))
	employees.Get("/", hrHandler.ListEmployees)
	employees.Post("/", hrHandler.CreateEmployee)
	employees.Put("/:id", hrHandler.UpdateEmployee)
	employees.Delete("/:id", hrHandler.DeleteEmployee)
	employees.Get("/:id/photo", hrHandler.Photo)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelHub != nil {
		r.cancelHub()
	}

	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
