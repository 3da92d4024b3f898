package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(kind EventKind) Event {
	return Event{
		Kind:   kind,
		Scope:  "730",
		Detail: "history budget exhausted for the day",
		Count:  3,
	}
}

func TestDiscordNotifier_SendEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		event      Event
		statusCode int
		wantErr    bool
		errMsg     string
		wantColor  int
	}{
		{
			name:       "daily limit event uses red",
			event:      testEvent(EventDailyLimitReached),
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
		},
		{
			name:       "throttle streak event uses orange",
			event:      testEvent(EventThrottleStreak),
			statusCode: http.StatusNoContent,
			wantColor:  colorOrange,
		},
		{
			name:       "unknown kind uses grey",
			event:      testEvent(EventKind("weird")),
			statusCode: http.StatusNoContent,
			wantColor:  colorGrey,
		},
		{
			name:       "discord returns 429 rate limited",
			event:      testEvent(EventThrottleStreak),
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			event:      testEvent(EventThrottleStreak),
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got discordWebhookPayload
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			n := NewDiscordNotifier(srv.URL)
			err := n.SendEvent(context.Background(), tt.event)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, got.Embeds, 1)
			assert.Equal(t, tt.wantColor, got.Embeds[0].Color)
			assert.NotEmpty(t, got.Embeds[0].Title)

			// Scope and count surface as fields.
			require.Len(t, got.Embeds[0].Fields, 2)
			assert.Equal(t, "730", got.Embeds[0].Fields[0].Value)
			assert.Equal(t, "3", got.Embeds[0].Fields[1].Value)
		})
	}
}

func TestDiscordNotifier_WithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	n := NewDiscordNotifier("https://example.invalid/webhook", WithHTTPClient(custom))
	assert.Same(t, custom, n.client)
}
