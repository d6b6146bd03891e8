package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/varejo/backend/internal/domain/notification"
	"github.com/varejo/backend/internal/infrastructure/config"
)

// WhatsAppClient implements MessageSender against an HTTP WhatsApp gateway.
// Phone numbers are normalized to Brazilian E.164 (55 + area code + number)
// before delivery.
type WhatsAppClient struct {
	baseURL    string
	apiKey     string
	instanceID string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWhatsAppClient creates a new WhatsAppClient
func NewWhatsAppClient(cfg config.WhatsAppConfig, logger *zap.Logger) *WhatsAppClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		instanceID: cfg.InstanceID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("whatsapp"),
	}
}

// ValidatePhone implements notification.MessageSender. A deliverable
// Brazilian number carries an area code plus an 8 or 9 digit subscriber
// number, with or without the 55 country code.
func (c *WhatsAppClient) ValidatePhone(raw string) bool {
	digits := onlyDigits(raw)
	switch len(digits) {
	case 10, 11:
		return true
	case 12, 13:
		return strings.HasPrefix(digits, "55")
	default:
		return false
	}
}

// FormatPhone implements notification.MessageSender
func (c *WhatsAppClient) FormatPhone(raw string) string {
	digits := onlyDigits(raw)
	if !strings.HasPrefix(digits, "55") || len(digits) <= 11 {
		digits = "55" + digits
	}
	return digits
}

type sendMessageRequest struct {
	Phone    string `json:"phone"`
	Message  string `json:"message"`
	Instance string `json:"instance,omitempty"`
}

type sendMessageResponse struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// Send implements notification.MessageSender
func (c *WhatsAppClient) Send(ctx context.Context, phone, text string) (bool, error) {
	if c.baseURL == "" {
		return false, fmt.Errorf("whatsapp gateway is not configured")
	}

	body, err := json.Marshal(sendMessageRequest{
		Phone:    phone,
		Message:  text,
		Instance: c.instanceID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to call whatsapp gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Gateway rejected message", zap.Int("status", resp.StatusCode))
		return false, fmt.Errorf("whatsapp gateway returned status %d", resp.StatusCode)
	}

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if !result.Sent {
		c.logger.Warn("Gateway did not accept message", zap.String("error", result.Error))
	}
	return result.Sent, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Ensure WhatsAppClient implements MessageSender
var _ notification.MessageSender = (*WhatsAppClient)(nil)
