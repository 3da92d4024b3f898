package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	colorRed    = 0xE74C3C // daily limit
	colorOrange = 0xE67E22 // throttle streak
	colorGrey   = 0x95A5A6 // everything else
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendEvent sends an operator event as a Discord embed.
func (d *DiscordNotifier) SendEvent(ctx context.Context, ev Event) error {
	embed := buildEmbed(ev)
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{embed},
	}
	return d.post(ctx, payload)
}

func buildEmbed(ev Event) discordEmbed {
	embed := discordEmbed{
		Title:       eventTitle(ev.Kind),
		Color:       eventColor(ev.Kind),
		Description: ev.Detail,
	}
	if ev.Scope != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name: "Collection", Value: ev.Scope, Inline: true,
		})
	}
	if ev.Count > 0 {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name: "Count", Value: fmt.Sprintf("%d", ev.Count), Inline: true,
		})
	}
	return embed
}

func eventTitle(kind EventKind) string {
	switch kind {
	case EventDailyLimitReached:
		return "Collector: daily request limit reached"
	case EventThrottleStreak:
		return "Collector: repeated throttling from marketplace"
	default:
		return fmt.Sprintf("Collector: %s", kind)
	}
}

func eventColor(kind EventKind) int {
	switch kind {
	case EventDailyLimitReached:
		return colorRed
	case EventThrottleStreak:
		return colorOrange
	default:
		return colorGrey
	}
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
