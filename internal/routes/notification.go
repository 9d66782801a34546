package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftkart/giftkart/internal/notification"
)

// RegisterNotificationRoutes wires the notification inbox.
func RegisterNotificationRoutes(r fiber.Router, h *notification.Handler) {
	group := r.Group("/notifications")
	group.Get("/", h.List)
	group.Patch("/:id/read", h.MarkRead)
}
