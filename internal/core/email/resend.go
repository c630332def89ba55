package email

import (
	"context"
	"net/http"
)

// ResendProvider sends through the Resend API
type ResendProvider struct {
	apiClient
	from string
}

func NewResendProvider(apiKey, fromEmail, fromName string) *ResendProvider {
	from := fromEmail
	if fromName != "" {
		from = fromName + " <" + fromEmail + ">"
	}
	return &ResendProvider{
		apiClient: newAPIClient("resend", "https://api.resend.com", func(h http.Header) {
			h.Set("Authorization", "Bearer "+apiKey)
		}),
		from: from,
	}
}

type resendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
}

func (p *ResendProvider) Send(ctx context.Context, msg Message) error {
	return p.post(ctx, "/emails", resendEmailRequest{
		From:    p.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
}

func (p *ResendProvider) Name() string { return "resend" }
