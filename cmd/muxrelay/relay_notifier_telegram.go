package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valinor-ai/muxrelay/internal/mux"
	"github.com/valinor-ai/muxrelay/internal/platform/config"
	"github.com/valinor-ai/muxrelay/internal/relay"
)

const defaultTelegramAPIBaseURL = "https://api.telegram.org"

type telegramNotifier struct {
	client     *http.Client
	apiBaseURL string
	botToken   string
	chatID     string
	now        func() time.Time
}

func newTelegramNotifier(cfg config.TelegramConfig, client *http.Client) (*telegramNotifier, error) {
	botToken := strings.TrimSpace(cfg.BotToken)
	if botToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	chatID := strings.TrimSpace(cfg.ChatID)
	if chatID == "" {
		return nil, fmt.Errorf("telegram chat id is required")
	}

	httpClient := client
	if httpClient == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = defaultNotifierHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	apiBaseURL := strings.TrimSpace(cfg.APIBaseURL)
	if apiBaseURL == "" {
		apiBaseURL = defaultTelegramAPIBaseURL
	}

	return &telegramNotifier{
		client:     httpClient,
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		botToken:   botToken,
		chatID:     chatID,
		now:        time.Now,
	}, nil
}

func (n *telegramNotifier) Notify(ctx context.Context, report mux.Report) error {
	text, err := report.Text()
	if err != nil {
		return relay.NewPermanentError(err)
	}

	type telegramSendRequest struct {
		ChatID                string `json:"chat_id"`
		Text                  string `json:"text"`
		DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	}

	body, err := json.Marshal(telegramSendRequest{
		ChatID:                n.chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshaling telegram message body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBaseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// The request URL embeds the bot token.
		return relay.NewTransientError(fmt.Errorf("sending telegram request: %w", redactURLError(err)), 0)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return classifyNotifierHTTPStatus("telegram", resp.StatusCode, msg, resp.Header.Get("Retry-After"), n.now().UTC())
	}

	var response struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return fmt.Errorf("decoding telegram response: %w", err)
	}
	if !response.OK {
		errMsg := strings.TrimSpace(response.Description)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		// Throttling arrives as HTTP 429; ok=false is a semantic rejection.
		return relay.NewPermanentError(fmt.Errorf("telegram send failed: %s", errMsg))
	}

	return nil
}

// redactURLError strips the request URL from transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s telegram: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
