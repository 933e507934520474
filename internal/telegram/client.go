// Package telegram provides the Bot API client used for polling group
// updates and delivering reminders.
//
// All outgoing traffic goes through a token bucket limiter so a busy run
// (leaderboard day, several stale campaigns) cannot trip Telegram's
// per-group flood limits. 429 responses are retried after the server's
// suggested delay.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

const maxAttempts = 3

// Client is the shared HTTP client for all Bot API methods.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Bot API client with rate limiting.
func NewClient(baseURL, token string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    baseURL,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// BotID returns the numeric account id embedded in the token, or 0 when
// the token has no recognizable prefix.
func (c *Client) BotID() int64 {
	head, _, ok := strings.Cut(c.token, ":")
	if !ok {
		return 0
	}
	var id int64
	if _, err := fmt.Sscanf(head, "%d", &id); err != nil {
		return 0
	}
	return id
}

// call performs a rate-limited POST of one Bot API method.
func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	u := c.baseURL + "/bot" + c.token + "/" + method

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request %s: %w", method, err)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}

		var result apiResponse
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("telegram %s returned %d: %s", method, resp.StatusCode, truncate(raw, 200))
		}
		if result.OK {
			return result.Result, nil
		}

		if result.ErrorCode == http.StatusTooManyRequests && result.Parameters != nil && attempt < maxAttempts {
			wait := time.Duration(result.Parameters.RetryAfter) * time.Second
			c.logger.Warn("telegram flood limit, retrying", "method", method, "wait", wait, "attempt", attempt)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return nil, fmt.Errorf("telegram %s failed: %d %s", method, result.ErrorCode, result.Description)
	}
}

// GetUpdates long-polls for new updates past offset. A zero timeout makes
// the call return immediately with whatever is queued.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         timeoutSec,
		"allowed_updates": []string{"message", "callback_query"},
	}
	raw, err := c.call(ctx, "getUpdates", payload)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// Send posts an HTML message to a group topic and returns the new
// message id. threadID 0 targets the group's general topic.
func (c *Client) Send(ctx context.Context, chatID, threadID int64, text string) (int64, error) {
	return c.sendMessage(ctx, chatID, threadID, text, "", nil)
}

// SendHTML posts a message rendered with Telegram HTML markup. Notices
// go out as plain text so arbitrary names never need escaping; only the
// changelog announcements carry markup.
func (c *Client) SendHTML(ctx context.Context, chatID, threadID int64, text string) (int64, error) {
	return c.sendMessage(ctx, chatID, threadID, text, "HTML", nil)
}

// SendWithChoices posts a message carrying an inline keyboard, one row
// per choice, and returns the new message id.
func (c *Client) SendWithChoices(ctx context.Context, chatID, threadID int64, text string, choices []Choice) (int64, error) {
	rows := make([][]inlineButton, 0, len(choices))
	for _, ch := range choices {
		rows = append(rows, []inlineButton{{Text: ch.Label, CallbackData: ch.Data}})
	}
	return c.sendMessage(ctx, chatID, threadID, text, "", &inlineKeyboard{InlineKeyboard: rows})
}

func (c *Client) sendMessage(ctx context.Context, chatID, threadID int64, text, parseMode string, markup *inlineKeyboard) (int64, error) {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}
	if threadID != 0 {
		payload["message_thread_id"] = threadID
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	raw, err := c.call(ctx, "sendMessage", payload)
	if err != nil {
		return 0, err
	}
	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(raw, &sent); err != nil {
		return 0, fmt.Errorf("decode sent message: %w", err)
	}
	return sent.MessageID, nil
}

// Edit replaces the text of a previously sent message. Editing without a
// reply markup also clears any inline keyboard, which is how choice
// messages are retired once tapped.
func (c *Client) Edit(ctx context.Context, chatID, messageID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	_, err := c.call(ctx, "editMessageText", payload)
	return err
}

// Acknowledge answers a callback query so the tapping client stops
// showing its progress spinner.
func (c *Client) Acknowledge(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
	}
	_, err := c.call(ctx, "answerCallbackQuery", payload)
	return err
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
