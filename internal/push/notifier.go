package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTTL         = 60
	defaultConcurrency = 8
)

// Recorder receives one call per delivery attempt.
type Recorder interface {
	ObservePush(result string)
}

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

// Result summarises one broadcast.
type Result struct {
	Attempted int
	Sent      int
	Failed    int
	Expired   int
}

// Notifier delivers a notification to every stored subscription. Each
// delivery is attempted exactly once; failures are logged and counted but
// never returned.
type Notifier struct {
	store       Store
	vapid       VAPIDConfig
	httpClient  webpush.HTTPClient
	logger      *slog.Logger
	recorder    Recorder
	ttl         int
	concurrency int
}

type NotifierOption func(*Notifier)

func WithHTTPClient(c webpush.HTTPClient) NotifierOption {
	return func(n *Notifier) { n.httpClient = c }
}

func WithRecorder(r Recorder) NotifierOption {
	return func(n *Notifier) { n.recorder = r }
}

func WithConcurrency(limit int) NotifierOption {
	return func(n *Notifier) {
		if limit > 0 {
			n.concurrency = limit
		}
	}
}

func NewNotifier(store Store, vapid VAPIDConfig, logger *slog.Logger, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		store:       store,
		vapid:       vapid,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger.With("component", "push"),
		ttl:         defaultTTL,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled reports whether VAPID keys are configured. Without them every
// Broadcast is a silent no-op.
func (n *Notifier) Enabled() bool {
	return n.vapid.PublicKey != "" && n.vapid.PrivateKey != ""
}

func (n *Notifier) PublicKey() string {
	return n.vapid.PublicKey
}

func (n *Notifier) Broadcast(ctx context.Context, note Notification) Result {
	var res Result
	if !n.Enabled() {
		return res
	}

	subs, err := n.store.List(ctx)
	if err != nil {
		n.logger.WarnContext(ctx, "failed to list push subscriptions", "error", err)
		return res
	}
	if len(subs) == 0 {
		return res
	}

	payload, err := json.Marshal(note)
	if err != nil {
		n.logger.WarnContext(ctx, "failed to encode notification", "error", err)
		return res
	}

	outcomes := make([]string, len(subs))

	var g errgroup.Group
	g.SetLimit(n.concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			outcomes[i] = n.deliver(ctx, sub, payload)
			return nil
		})
	}
	_ = g.Wait()

	res.Attempted = len(subs)
	for _, o := range outcomes {
		switch o {
		case resultSent:
			res.Sent++
		case resultExpired:
			res.Expired++
		default:
			res.Failed++
		}
	}
	return res
}

const (
	resultSent    = "sent"
	resultFailed  = "failed"
	resultExpired = "expired"
)

func (n *Notifier) deliver(ctx context.Context, sub Subscription, payload []byte) string {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      n.httpClient,
		Subscriber:      strings.TrimPrefix(n.vapid.Subject, "mailto:"),
		TTL:             n.ttl,
		VAPIDPublicKey:  n.vapid.PublicKey,
		VAPIDPrivateKey: n.vapid.PrivateKey,
	})
	if err != nil {
		n.logger.WarnContext(ctx, "push delivery failed",
			"endpoint", shortEndpoint(sub.Endpoint),
			"error", err,
		)
		n.record(resultFailed)
		return resultFailed
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// the browser dropped this subscription
		if err := n.store.Remove(ctx, sub.Endpoint); err != nil {
			n.logger.WarnContext(ctx, "failed to remove expired subscription", "error", err)
		}
		n.logger.InfoContext(ctx, "removed expired push subscription",
			"endpoint", shortEndpoint(sub.Endpoint),
			"status", resp.StatusCode,
		)
		n.record(resultExpired)
		return resultExpired
	case resp.StatusCode >= 400:
		n.logger.WarnContext(ctx, "push service rejected notification",
			"endpoint", shortEndpoint(sub.Endpoint),
			"status", resp.StatusCode,
		)
		n.record(resultFailed)
		return resultFailed
	}

	n.record(resultSent)
	return resultSent
}

func (n *Notifier) record(result string) {
	if n.recorder != nil {
		n.recorder.ObservePush(result)
	}
}

// shortEndpoint keeps logs free of the full capability URL.
func shortEndpoint(endpoint string) string {
	const keep = 40
	if len(endpoint) <= keep {
		return endpoint
	}
	return fmt.Sprintf("%s...", endpoint[:keep])
}

// GenerateVAPIDKeys returns a fresh (public, private) key pair.
func GenerateVAPIDKeys() (string, string, error) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate vapid keys: %w", err)
	}
	return pub, priv, nil
}
