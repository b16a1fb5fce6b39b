// Package dispatch delivers composed notifications to their destinations.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	config "vigil0/app/configs"
	"vigil0/app/core/persona"
)

const defaultAPIRoot = "https://api.telegram.org"

// Dispatcher sends one message to one target.
type Dispatcher interface {
	Send(ctx context.Context, target, text string, style persona.Style) error
}

// Telegram is a send-only bot client. It never polls for updates; this layer
// speaks, it does not listen.
type Telegram struct {
	botToken string
	apiRoot  string
	timeout  time.Duration
	client   *http.Client
}

func NewTelegram(cfg config.DispatchConfig) (*Telegram, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	apiRoot := strings.TrimSpace(cfg.APIRoot)
	if apiRoot == "" {
		apiRoot = defaultAPIRoot
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Telegram{
		botToken: cfg.BotToken,
		apiRoot:  apiRoot,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (t *Telegram) Send(ctx context.Context, target, text string, style persona.Style) error {
	if strings.TrimSpace(target) == "" {
		return fmt.Errorf("telegram chat id is required")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("telegram message text is required")
	}

	payload, _ := sjson.Set("", "chat_id", target)
	payload, _ = sjson.Set(payload, "text", text)
	if style.Muted {
		payload, _ = sjson.Set(payload, "disable_notification", true)
	}
	return t.call(ctx, "sendMessage", payload)
}

func (t *Telegram) call(ctx context.Context, method, payload string) error {
	url := strings.TrimRight(t.apiRoot, "/") + "/bot" + t.botToken + "/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if !gjson.GetBytes(respBody, "ok").Bool() {
		return fmt.Errorf("telegram api error: %s", gjson.GetBytes(respBody, "description").String())
	}
	return nil
}
