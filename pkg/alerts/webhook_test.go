package alerts_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/alerts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentAt = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return sentAt }

func criticalAlert() alerts.Alert {
	return alerts.Alert{
		Level:        alerts.AlertCritical,
		OwnerID:      "alice",
		BudgetName:   "monthly",
		Limit:        decimal.NewFromInt(500),
		Spent:        decimal.NewFromInt(490),
		UsedPct:      98,
		ThresholdPct: 80.0,
		Period:       "monthly",
		PeriodStart:  "2024-03-01",
	}
}

func TestWebhookNotifier_Name(t *testing.T) {
	n := alerts.NewWebhookNotifier("https://example.com/webhook", "")
	assert.Equal(t, "webhook", n.Name())
}

func TestWebhookNotifier_Send(t *testing.T) {
	var (
		ev      alerts.WebhookEvent
		headers http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "", alerts.WithWebhookClock(fixedClock))
	require.NoError(t, n.Send(context.Background(), criticalAlert()))

	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "budget.critical", headers.Get(alerts.HeaderEvent))
	assert.Equal(t, ev.ID, headers.Get(alerts.HeaderDelivery))
	assert.Empty(t, headers.Get(alerts.HeaderSignature))

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "budget.critical", ev.Event)
	assert.Equal(t, "alice", ev.OwnerID)
	assert.Equal(t, "monthly", ev.Budget)
	assert.Equal(t, "2024-03-01", ev.PeriodStart)
	assert.True(t, ev.SentAt.Equal(sentAt))
	assert.Equal(t, alerts.AlertCritical, ev.Data.Level)
	assert.Equal(t, "490", ev.Data.Spent.String())
	assert.Equal(t, "500", ev.Data.Limit.String())
}

func TestWebhookNotifier_DeliveryIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.Header.Get(alerts.HeaderDelivery)] = true
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	for i := 0; i < 3; i++ {
		require.NoError(t, n.Send(context.Background(), criticalAlert()))
	}
	assert.Len(t, seen, 3)
}

func TestWebhookNotifier_Signed(t *testing.T) {
	var (
		signature string
		payload   []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get(alerts.HeaderSignature)
		payload, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	secret := []byte("test-secret")
	n := alerts.NewWebhookNotifier(server.URL, string(secret), alerts.WithWebhookClock(fixedClock))
	require.NoError(t, n.Send(context.Background(), criticalAlert()))

	assert.Equal(t, alerts.Sign(secret, sentAt, payload), signature)
	assert.Contains(t, signature, "t=1709726400,")
	assert.NoError(t, alerts.VerifySignature(secret, signature, payload, 5*time.Minute, sentAt.Add(time.Minute)))
}

func TestVerifySignature_Rejects(t *testing.T) {
	secret := []byte("test-secret")
	body := []byte(`{"event":"budget.warning"}`)
	header := alerts.Sign(secret, sentAt, body)

	tests := []struct {
		name   string
		secret []byte
		header string
		body   []byte
		now    time.Time
	}{
		{"wrong secret", []byte("other"), header, body, sentAt},
		{"tampered body", secret, header, []byte(`{"event":"budget.exceeded"}`), sentAt},
		{"stale", secret, header, body, sentAt.Add(time.Hour)},
		{"malformed", secret, "sha256=abc", body, sentAt},
		{"bad timestamp", secret, "t=soon,v1=abc", body, sentAt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := alerts.VerifySignature(tt.secret, tt.header, tt.body, 5*time.Minute, tt.now)
			assert.ErrorIs(t, err, alerts.ErrInvalidSignature)
		})
	}

	// Zero tolerance only checks the digest.
	assert.NoError(t, alerts.VerifySignature(secret, header, body, 0, sentAt.Add(24*time.Hour)))
}

func TestWebhookNotifier_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), alerts.Alert{Level: alerts.AlertWarning})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "maintenance")
}

func TestWebhookNotifier_CustomClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "", alerts.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	err := n.Send(context.Background(), alerts.Alert{Level: alerts.AlertWarning})
	assert.ErrorContains(t, err, "deliver budget.warning")
}
