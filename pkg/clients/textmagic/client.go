package textmagic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://rest.textmagic.com/api/v2"

// Client defines the interface for interacting with TextMagic API
type Client interface {
	SendMessage(ctx context.Context, phone, message string) error
}

type clientImpl struct {
	apiKey     string
	username   string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new TextMagic client
func NewClient(username, apiKey string) Client {
	return NewClientWithBaseURL(username, apiKey, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a non-default API root
func NewClientWithBaseURL(username, apiKey, baseURL string) Client {
	return &clientImpl{
		apiKey:     apiKey,
		username:   username,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type sendResponse struct {
	ID        int    `json:"id"`
	SessionID int    `json:"sessionId"`
	Message   string `json:"message"`
}

// SendMessage sends text to a single phone number. TextMagic expects the
// number in international format without the leading plus.
func (c *clientImpl) SendMessage(ctx context.Context, phone, message string) error {
	payload := map[string]any{
		"phones": strings.TrimPrefix(phone, "+"),
		"text":   message,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error creating payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.SetBasicAuth(c.username, c.apiKey)
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error from TextMagic API: status %d: %s", resp.StatusCode, string(body))
	}

	var sent sendResponse
	if err := json.Unmarshal(body, &sent); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}

	log.WithField("prefix", "textmagic").WithField("message_id", sent.ID).Debug("message queued")
	return nil
}
