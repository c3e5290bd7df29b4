package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Headers set on every webhook delivery.
const (
	HeaderEvent     = "X-Expt-Event"
	HeaderDelivery  = "X-Expt-Delivery"
	HeaderSignature = "X-Expt-Signature"
)

// ErrInvalidSignature is returned by VerifySignature when a delivery does not
// match its signature header.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookEvent is the JSON body of a webhook delivery.
type WebhookEvent struct {
	ID          string    `json:"id"`
	Event       string    `json:"event"`
	OwnerID     string    `json:"owner_id"`
	Budget      string    `json:"budget"`
	Period      string    `json:"period"`
	PeriodStart string    `json:"period_start"`
	SentAt      time.Time `json:"sent_at"`
	Data        Alert     `json:"data"`
}

// EventName returns the webhook event for an alert level, e.g. "budget.exceeded".
func EventName(level AlertLevel) string {
	return "budget." + string(level)
}

// WebhookNotifier posts budget events to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	secret []byte
	client *http.Client
	now    func() time.Time
}

// WebhookOption customizes a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient replaces the default client, which times out after 10s.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookNotifier) { w.client = c }
}

// WithWebhookClock sets the clock used for delivery timestamps.
func WithWebhookClock(now func() time.Time) WebhookOption {
	return func(w *WebhookNotifier) { w.now = now }
}

// NewWebhookNotifier creates a webhook notifier. When secret is non-empty
// every delivery carries an HMAC-SHA256 signature over "<unix ts>.<body>".
func NewWebhookNotifier(url, secret string, opts ...WebhookOption) *WebhookNotifier {
	w := &WebhookNotifier{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	ev := WebhookEvent{
		ID:          uuid.New().String(),
		Event:       EventName(alert.Level),
		OwnerID:     alert.OwnerID,
		Budget:      alert.BudgetName,
		Period:      alert.Period,
		PeriodStart: alert.PeriodStart,
		SentAt:      w.now().UTC(),
		Data:        alert,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "expt-webhook/1.0")
	req.Header.Set(HeaderEvent, ev.Event)
	req.Header.Set(HeaderDelivery, ev.ID)
	if len(w.secret) > 0 {
		req.Header.Set(HeaderSignature, Sign(w.secret, ev.SentAt, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s to webhook: %w", ev.Event, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// Sign builds a signature header value of the form "t=<unix>,v1=<hex>".
func Sign(secret []byte, at time.Time, body []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + digest(secret, ts, body)
}

// VerifySignature checks a signature header against body. Deliveries signed
// more than tolerance away from now are rejected; zero tolerance skips that check.
func VerifySignature(secret []byte, header string, body []byte, tolerance time.Duration, now time.Time) error {
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp %q", ErrInvalidSignature, ts)
	}
	if tolerance > 0 {
		if d := now.Sub(time.Unix(unix, 0)); d > tolerance || d < -tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
		}
	}
	if !hmac.Equal([]byte(sig), []byte(digest(secret, ts, body))) {
		return ErrInvalidSignature
	}
	return nil
}

func digest(secret []byte, ts string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
