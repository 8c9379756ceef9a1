package handler

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facemood/internal/audit"
	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
	"github.com/saturnino-fabrica-de-software/facemood/internal/push"
	"github.com/saturnino-fabrica-de-software/facemood/internal/ws"
)

//go:embed static/sw.js
var serviceWorker []byte

// SubscriptionStore is satisfied by push.MemoryStore and push.RedisStore.
type SubscriptionStore interface {
	Add(ctx context.Context, sub push.Subscription) (bool, error)
	Count(ctx context.Context) (int, error)
}

type EventPublisher interface {
	Publish(eventType ws.EventType, data interface{})
}

type PushHandler struct {
	store     SubscriptionStore
	publicKey string
	events    EventPublisher
	audit     audit.Logger
	logger    *slog.Logger
}

func NewPushHandler(store SubscriptionStore, publicKey string, events EventPublisher, auditLogger audit.Logger, logger *slog.Logger) *PushHandler {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &PushHandler{
		store:     store,
		publicKey: publicKey,
		events:    events,
		audit:     auditLogger,
		logger:    logger,
	}
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// Subscribe POST /api/subscribe - registers a browser PushSubscription.
// Re-sending a known endpoint is a no-op.
func (h *PushHandler) Subscribe(c *fiber.Ctx) error {
	var sub push.Subscription
	if err := c.BodyParser(&sub); err != nil {
		return domain.ErrInvalidSubscription.WithError(err)
	}
	if err := sub.Validate(); err != nil {
		return err
	}

	ctx := c.UserContext()
	added, err := h.store.Add(ctx, sub)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	if added {
		if total, err := h.store.Count(ctx); err != nil {
			h.logger.Warn("push subscription stored, count failed", "error", err)
		} else {
			h.logger.Info("push subscription stored", "total", total)
			if h.events != nil {
				h.events.Publish(ws.EventSubscriberAdded, map[string]int{"subscriptions": total})
			}
		}
		_ = h.audit.Log(ctx, audit.Event{
			EventType: audit.EventPushSubscribed,
			Success:   true,
			IPAddress: c.IP(),
		})
	}

	return c.JSON(SuccessResponse{Success: true})
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
	Enabled   bool   `json:"enabled"`
}

// PublicKey GET /api/push/key - the VAPID application server key.
func (h *PushHandler) PublicKey(c *fiber.Ctx) error {
	return c.JSON(PublicKeyResponse{
		PublicKey: h.publicKey,
		Enabled:   h.publicKey != "",
	})
}

// ServiceWorker GET /sw.js
func (h *PushHandler) ServiceWorker(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/javascript; charset=utf-8")
	c.Set("Service-Worker-Allowed", "/")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.Send(serviceWorker)
}
