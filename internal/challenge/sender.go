package challenge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/logging"
)

// Sender delivers a sign-in code to its destination.
type Sender interface {
	Send(ctx context.Context, channel Channel, destination, code string) error
}

// LogSender writes codes to the log. Development only.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, channel Channel, destination, code string) error {
	s.Logger.Info("sign-in code issued",
		zap.String("channel", string(channel)),
		zap.String("destination", logging.MaskDestination(destination)),
		zap.String("code", code),
	)
	return nil
}

// WebhookSender posts codes to an SMS/email relay.
type WebhookSender struct {
	URL    string
	Client *http.Client
}

func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

type webhookPayload struct {
	Channel     Channel `json:"channel"`
	Destination string  `json:"destination"`
	Code        string  `json:"code"`
}

func (s *WebhookSender) Send(ctx context.Context, channel Channel, destination, code string) error {
	body, err := json.Marshal(webhookPayload{Channel: channel, Destination: destination, Code: code})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("challenge: build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("challenge: relay: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("challenge: relay answered %d", resp.StatusCode)
	}
	return nil
}
