// Package push отправляет мобильные уведомления через OneSignal REST API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"alfa-forge/internal/logger"
)

const DefaultEndpoint = "https://api.onesignal.com/notifications"

var ErrNotConfigured = errors.New("onesignal: app id or api key not set")

type Config struct {
	AppID    string
	APIKey   string
	Endpoint string
	// RateLimit — запросов в секунду; 0 отключает ограничение
	RateLimit float64
	Timeout   time.Duration
}

type Message struct {
	PlayerIDs       []string
	ExternalUserIDs []string
	Title           string
	Body            string
	Data            map[string]any
	URL             string
	SendAfter       *time.Time
}

type Client struct {
	appID    string
	apiKey   string
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
}

func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		appID:    cfg.AppID,
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
	}
}

func (c *Client) Enabled() bool {
	return c.appID != "" && c.apiKey != ""
}

type payload struct {
	AppID                  string            `json:"app_id"`
	IncludePlayerIDs       []string          `json:"include_player_ids,omitempty"`
	IncludeExternalUserIDs []string          `json:"include_external_user_ids,omitempty"`
	TargetChannel          string            `json:"target_channel"`
	Headings               map[string]string `json:"headings"`
	Contents               map[string]string `json:"contents"`
	Data                   map[string]any    `json:"data,omitempty"`
	URL                    string            `json:"url,omitempty"`
	SendAfter              string            `json:"send_after,omitempty"`
}

type response struct {
	ID     string `json:"id"`
	Errors any    `json:"errors,omitempty"`
}

// APIError — ответ OneSignal с кодом не из 2xx
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("onesignal: status %d: %s", e.Status, e.Body)
}

// Send отправляет одно уведомление. Ожидает очередь лимитера с учётом ctx.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body := payload{
		AppID:                  c.appID,
		IncludePlayerIDs:       msg.PlayerIDs,
		IncludeExternalUserIDs: msg.ExternalUserIDs,
		TargetChannel:          "push",
		Headings:               map[string]string{"en": msg.Title},
		Contents:               map[string]string{"en": msg.Body},
		Data:                   msg.Data,
		URL:                    msg.URL,
	}
	if msg.SendAfter != nil {
		body.SendAfter = msg.SendAfter.UTC().Format(http.TimeFormat)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("onesignal: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("onesignal: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result response
	if err := json.Unmarshal(respBody, &result); err == nil {
		logger.Debug("📲 Push отправлен в OneSignal", "id", result.ID, "players", len(msg.PlayerIDs))
	}
	return nil
}
