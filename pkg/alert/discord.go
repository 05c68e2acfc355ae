package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	embed := map[string]any{
		"title": fmt.Sprintf("Negative sentiment spike: %s", n.Brand),
		"description": fmt.Sprintf("%d of %d posts negative (%.0f%%) over the last %s\n%s",
			n.NegativePosts, n.TotalPosts, n.NegativeShare*100, n.Window, n.Body),
		"color": 0xE74C3C,
		"fields": []map[string]any{
			{"name": "Brand", "value": n.Brand, "inline": true},
			{"name": "Negative share", "value": fmt.Sprintf("%.0f%%", n.NegativeShare*100), "inline": true},
		},
	}

	payload := map[string]any{"embeds": []map[string]any{embed}}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord webhook status %d", resp.StatusCode)
	}

	return nil
}
