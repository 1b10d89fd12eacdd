package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kokoruadmin/kokoru-backend/pkg/httpclient"
)

// MailAPISender delivers mail through an HTTP mail API behind a circuit
// breaker, so a slow mail provider cannot stall order processing.
type MailAPISender struct {
	client *httpclient.CircuitBreakerClient
	url    string
	apiKey string
	from   string
	logger *slog.Logger
}

// NewMailAPISender creates a sender posting to the given mail API
// endpoint.
func NewMailAPISender(client *httpclient.CircuitBreakerClient, url, apiKey, from string, logger *slog.Logger) *MailAPISender {
	return &MailAPISender{
		client: client,
		url:    url,
		apiKey: apiKey,
		from:   from,
		logger: logger,
	}
}

type mailAPIPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Send implements Sender.
func (s *MailAPISender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(mailAPIPayload{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	s.logger.DebugContext(ctx, "mail sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)

	return nil
}

// LogSender writes messages to the log instead of delivering them. Used
// in development and tests.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "mail (log only)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
