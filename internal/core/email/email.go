package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/presupuestalo/marketplace-be/internal/shared/config"
	"github.com/rs/zerolog/log"
)

// Message is a single outgoing HTML email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Provider defines the interface for email providers
type Provider interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// NewProvider picks the provider from configuration. Without credentials
// emails are only logged.
func NewProvider(cfg *config.Config) Provider {
	switch strings.ToLower(cfg.EmailProvider) {
	case "resend":
		if cfg.ResendAPIKey != "" {
			return NewResendProvider(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		}
	case "brevo":
		if cfg.BrevoAPIKey != "" {
			return NewBrevoProvider(cfg.BrevoAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		}
	}
	log.Warn().Str("provider", cfg.EmailProvider).Msg("⚠️ Email provider not configured, emails will only be logged")
	return &LogProvider{}
}

// LogProvider writes emails to the log instead of sending them
type LogProvider struct{}

func (p *LogProvider) Send(ctx context.Context, msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("📧 Email (not sent, no provider)")
	return nil
}

func (p *LogProvider) Name() string {
	return "log"
}

// apiError is a non-2xx answer from a provider API
type apiError struct {
	Provider string
	Status   int
	Body     string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// retryable reports whether a send failure is worth another attempt:
// network errors, rate limiting and provider 5xx
func retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}

func newRetryPolicy(maxRetries int, baseDelay time.Duration) retrypolicy.RetryPolicy[any] {
	return retrypolicy.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool { return retryable(err) }).
		WithBackoff(baseDelay, 20*baseDelay).
		WithMaxRetries(maxRetries).
		WithJitterFactor(0.1).
		Build()
}

func sendWithRetry(ctx context.Context, policy retrypolicy.RetryPolicy[any], send func() error) error {
	_, err := failsafe.With(policy).WithContext(ctx).Get(func() (any, error) {
		return nil, send()
	})
	return err
}

// Render builds the branded HTML body used by every notification email
func Render(title, message string, details map[string]string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #F97316; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { padding: 20px; background: #f9f9f9; border: 1px solid #ddd; border-top: none; }
        .data-item { padding: 8px; background: white; margin: 5px 0; border-radius: 3px; }
        .label { font-weight: bold; color: #555; }
        .footer { padding: 15px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h2>`)
	b.WriteString(html.EscapeString(title))
	b.WriteString(`</h2></div>
        <div class="content">
            <p>`)
	b.WriteString(html.EscapeString(message))
	b.WriteString(`</p>`)

	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, `
            <div class="data-item"><span class="label">%s:</span> %s</div>`,
				html.EscapeString(k), html.EscapeString(details[k]))
		}
	}

	b.WriteString(`
        </div>
        <div class="footer"><p>Presupuéstalo</p></div>
    </div>
</body>
</html>`)
	return b.String()
}
