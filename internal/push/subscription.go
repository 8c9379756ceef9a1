package push

import (
	"strings"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

// Subscription is the PushSubscription JSON a browser hands out after
// pushManager.subscribe.
type Subscription struct {
	Endpoint       string `json:"endpoint"`
	ExpirationTime *int64 `json:"expirationTime,omitempty"`
	Keys           Keys   `json:"keys"`
}

type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Normalized returns a copy with surrounding whitespace trimmed from the
// endpoint. Stores key subscriptions by the normalized endpoint.
func (s Subscription) Normalized() Subscription {
	s.Endpoint = strings.TrimSpace(s.Endpoint)
	return s
}

// Validate only requires an endpoint; keys are checked at delivery time.
func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Endpoint) == "" {
		return domain.ErrInvalidSubscription.WithMessage("Invalid subscription: endpoint is required")
	}
	return nil
}

// Notification is the payload the service worker renders.
type Notification struct {
	Title string           `json:"title"`
	Body  string           `json:"body"`
	Icon  string           `json:"icon,omitempty"`
	Data  NotificationData `json:"data"`
}

type NotificationData struct {
	URL string `json:"url"`
}
