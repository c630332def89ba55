package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/presupuestalo/marketplace-be/internal/core/email"
)

// SendEmailHandler delivers queued emails through the configured provider
type SendEmailHandler struct {
	provider email.Provider
}

func NewSendEmailHandler(provider email.Provider) *SendEmailHandler {
	return &SendEmailHandler{provider: provider}
}

func (h *SendEmailHandler) GetType() string {
	return TypeSendEmail
}

func (h *SendEmailHandler) Handle(ctx context.Context, job *Job) error {
	var msg email.Message
	if err := json.Unmarshal(job.Payload, &msg); err != nil {
		return fmt.Errorf("invalid email payload: %w", err)
	}
	if msg.To == "" {
		return fmt.Errorf("email payload has no recipient")
	}
	return h.provider.Send(ctx, msg)
}
