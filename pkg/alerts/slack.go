package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SlackNotifier sends alerts to a Slack webhook.
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, alert Alert) error {
	color := "#36a64f" // green
	switch alert.Level {
	case AlertWarning:
		color = "#ff9900" // orange
	case AlertCritical:
		color = "#ff0000" // red
	case AlertExceeded:
		color = "#cc0000" // dark red
	}

	payload := slackPayload{
		Channel: s.channel,
		Attachments: []slackAttachment{
			{
				Color: color,
				Title: fmt.Sprintf("Expense Tracker: Budget %s", string(alert.Level)),
				Text:  alert.Message,
				Fields: []slackField{
					{Title: "Budget", Value: alert.BudgetName, Short: true},
					{Title: "Owner", Value: alert.OwnerID, Short: true},
					{Title: "Period", Value: fmt.Sprintf("%s from %s", alert.Period, alert.PeriodStart), Short: true},
					{Title: "Category", Value: categoryLabel(alert.Category), Short: true},
					{Title: "Spent", Value: alert.Spent.StringFixed(2), Short: true},
					{Title: "Limit", Value: alert.Limit.StringFixed(2), Short: true},
					{Title: "Threshold", Value: fmt.Sprintf("%.0f%%", alert.ThresholdPct), Short: true},
					{Title: "Usage", Value: fmt.Sprintf("%.1f%%", alert.UsedPct), Short: true},
				},
				Footer: "Expense Tracker",
				Ts:     time.Now().Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

func categoryLabel(c string) string {
	if c == "" {
		return "all"
	}
	return c
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
