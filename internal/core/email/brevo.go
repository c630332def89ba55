package email

import (
	"context"
	"net/http"
)

// BrevoProvider sends through Brevo's transactional SMTP API
type BrevoProvider struct {
	apiClient
	sender brevoContact
}

func NewBrevoProvider(apiKey, fromEmail, fromName string) *BrevoProvider {
	return &BrevoProvider{
		apiClient: newAPIClient("brevo", "https://api.brevo.com/v3", func(h http.Header) {
			h.Set("api-key", apiKey)
		}),
		sender: brevoContact{Email: fromEmail, Name: fromName},
	}
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmailRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
}

func (p *BrevoProvider) Send(ctx context.Context, msg Message) error {
	return p.post(ctx, "/smtp/email", brevoEmailRequest{
		Sender:      p.sender,
		To:          []brevoContact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
}

func (p *BrevoProvider) Name() string { return "brevo" }
