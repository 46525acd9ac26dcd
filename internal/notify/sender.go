package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roomly/internal/models"
)

// MailSender delivers one email message.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PushSender delivers one payload to a web-push subscription.
type PushSender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) error
}

// SMTPConfig holds the mail transport settings.
type SMTPConfig struct {
	From     string
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender sends mail over plain SMTP with optional auth.
type SMTPSender struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewSMTPSender creates a mail sender for the given transport settings.
func NewSMTPSender(config SMTPConfig, logger zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		config: config,
		logger: logger.With().Str("component", "mail").Logger(),
	}
}

// Send delivers one message. The context is consulted before dialing only;
// net/smtp does not support mid-send cancellation.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.config.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("Mail sent")
	return nil
}

// WebPushSender posts payloads to registered subscription endpoints. Sends
// are rate limited so a large attendee list cannot flood the push service.
type WebPushSender struct {
	client  *http.Client
	limiter *rate.Limiter
	metrics *Metrics
	logger  zerolog.Logger
}

// NewWebPushSender creates a push sender allowing perSecond sends with the
// given burst.
func NewWebPushSender(perSecond, burst int, metrics *Metrics, logger zerolog.Logger) *WebPushSender {
	return &WebPushSender{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		metrics: metrics,
		logger:  logger.With().Str("component", "push").Logger(),
	}
}

// Send posts the payload to the subscription endpoint, waiting on the rate
// limiter first.
func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	if s.limiter.Tokens() < 1 {
		s.metrics.IncRateLimitWaits()
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("TTL", "3600")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post push to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint %s returned %d", sub.Endpoint, resp.StatusCode)
	}

	s.logger.Debug().Int64("subscription_id", sub.ID).Msg("Push sent")
	return nil
}

// pushPayload is the JSON body posted to push endpoints.
type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func encodePushPayload(title, body string) []byte {
	data, _ := json.Marshal(pushPayload{Title: title, Body: body})
	return data
}
