// Package telegram posts operator notifications through the Telegram
// Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MaxMessageLen is the Telegram Bot API limit for one text message.
const MaxMessageLen = 4096

// Client defines the notifier operations the pipeline uses.
type Client interface {
	// Enabled reports whether credentials are configured. Callers may
	// still invoke the send methods when disabled; they become no-ops.
	Enabled() bool
	// SendMessage posts text to the configured chat, splitting messages
	// over the API limit into chunks.
	SendMessage(ctx context.Context, text string) error
	// SendDocument uploads a file to the configured chat.
	SendDocument(ctx context.Context, path, caption string) error
}

// Option configures the Telegram client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Telegram client. Empty credentials produce a
// disabled client whose sends log once and succeed.
func NewClient(token, chatID string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		chatID:  chatID,
		baseURL: "https://api.telegram.org",
		http:    &http.Client{Timeout: 30 * time.Second},
		// Bot API allows roughly one message per second per chat.
		limiter: rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Enabled() bool {
	return c.token != "" && c.chatID != ""
}

func (c *httpClient) SendMessage(ctx context.Context, text string) error {
	if !c.Enabled() {
		zap.L().Debug("telegram: not configured, skipping message")
		return nil
	}

	for _, chunk := range SplitMessage(text, MaxMessageLen) {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "telegram: rate limiter wait")
		}
		if err := c.sendMessageChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *httpClient) sendMessageChunk(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": c.chatID,
		"text":    text,
	})
	if err != nil {
		return eris.Wrap(err, "telegram: marshal payload")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "telegram: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "sendMessage")
}

func (c *httpClient) SendDocument(ctx context.Context, path, caption string) error {
	if !c.Enabled() {
		zap.L().Debug("telegram: not configured, skipping document")
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return eris.Wrap(err, "telegram: open document")
	}
	defer file.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("chat_id", c.chatID); err != nil {
		return eris.Wrap(err, "telegram: write chat_id field")
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return eris.Wrap(err, "telegram: write caption field")
		}
	}
	part, err := w.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return eris.Wrap(err, "telegram: create form file")
	}
	if _, err := io.Copy(part, file); err != nil {
		return eris.Wrap(err, "telegram: copy document")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "telegram: close multipart writer")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "telegram: rate limiter wait")
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return eris.Wrap(err, "telegram: create request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, "sendDocument")
}

func (c *httpClient) do(req *http.Request, method string) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "telegram: %s request", method)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return eris.Errorf("telegram: %s status %d: %s", method, resp.StatusCode, string(body))
	}
	return nil
}

// SplitMessage splits text into chunks of at most limit bytes,
// preferring newline boundaries so reports stay readable.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if text[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
		if len(text) > 0 && text[0] == '\n' {
			text = text[1:]
		}
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
