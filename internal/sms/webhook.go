package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/model"
)

// WebhookProvider posts each SMS as JSON to the configured base URL.
type WebhookProvider struct {
	client *http.Client
}

func NewWebhookProvider(timeout time.Duration) *WebhookProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookProvider{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
	SenderID    string `json:"senderId,omitempty"`
}

type sendResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

func (p *WebhookProvider) Send(ctx context.Context, cfg model.SMSConfig, phoneNumber, message, senderID string) (string, error) {
	if cfg.BaseURL == "" {
		return "", errors.New("webhook provider requires base_url")
	}

	reqBody, err := json.Marshal(sendRequest{
		PhoneNumber: phoneNumber,
		Message:     message,
		SenderID:    senderID,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("failed to decode json: %w body=%q", err, string(body))
	}
	if sr.MessageID == "" {
		return "", fmt.Errorf("missing messageId in response body=%q", string(body))
	}

	return sr.MessageID, nil
}
