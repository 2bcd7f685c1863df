package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_Payload(t *testing.T) {
	var got map[string]any
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"n-1"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{AppID: "app", APIKey: "secret", Endpoint: srv.URL})
	sendAfter := time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC)

	err := c.Send(context.Background(), Message{
		PlayerIDs:       []string{"p-1"},
		ExternalUserIDs: []string{"user-1"},
		Title:           "Время привычки",
		Body:            "Зарядка",
		Data:            map[string]any{"habitId": "h-1"},
		URL:             "app://habits",
		SendAfter:       &sendAfter,
	})
	require.NoError(t, err)

	assert.Equal(t, "Key secret", auth)
	assert.Equal(t, "app", got["app_id"])
	assert.Equal(t, "push", got["target_channel"])
	assert.Equal(t, []any{"p-1"}, got["include_player_ids"])
	assert.Equal(t, []any{"user-1"}, got["include_external_user_ids"])
	assert.Equal(t, map[string]any{"en": "Время привычки"}, got["headings"])
	assert.Equal(t, map[string]any{"en": "Зарядка"}, got["contents"])
	assert.Equal(t, "app://habits", got["url"])
	assert.Equal(t, "Thu, 15 Oct 2026 07:00:00 GMT", got["send_after"])
}

func TestSend_OmitsEmptyTargets(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{AppID: "app", APIKey: "secret", Endpoint: srv.URL})
	require.NoError(t, c.Send(context.Background(), Message{ExternalUserIDs: []string{"user-1"}, Title: "t", Body: "b"}))

	assert.NotContains(t, got, "include_player_ids")
	assert.NotContains(t, got, "send_after")
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":["bad"]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{AppID: "app", APIKey: "secret", Endpoint: srv.URL})
	err := c.Send(context.Background(), Message{Title: "t", Body: "b"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestSend_NotConfigured(t *testing.T) {
	c := NewClient(Config{})

	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.Send(context.Background(), Message{}), ErrNotConfigured)
}

func TestSend_RateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{AppID: "app", APIKey: "secret", Endpoint: srv.URL, RateLimit: 0.001})
	require.NoError(t, c.Send(context.Background(), Message{Title: "t", Body: "b"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, c.Send(ctx, Message{Title: "t", Body: "b"}), "second send must wait for the limiter")
}
