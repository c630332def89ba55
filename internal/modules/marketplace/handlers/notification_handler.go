package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/auth"
	"github.com/presupuestalo/marketplace-be/internal/core/notification"
)

// NotificationReader is the dashboard side of notification.Service
type NotificationReader interface {
	List(ctx context.Context, accountID uuid.UUID, limit int) ([]notification.Record, error)
	MarkRead(ctx context.Context, accountID, id uuid.UUID) error
}

type NotificationHandler struct {
	notifications NotificationReader
}

func NewNotificationHandler(notifications NotificationReader) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications godoc
// @Summary My notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {object} map[string]interface{}
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	records, err := h.notifications.List(c.UserContext(), auth.AccountID(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}

	unread := 0
	for _, r := range records {
		if r.ReadAt == nil {
			unread++
		}
	}
	return c.JSON(fiber.Map{
		"notifications": records,
		"unread":        unread,
	})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid notification id")
	}
	if err := h.notifications.MarkRead(c.UserContext(), auth.AccountID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
