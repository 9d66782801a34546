package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftkart/giftkart/internal/gateway"
)

// RegisterPaymentRoutes wires payment initiation and history for the
// authenticated user.
func RegisterPaymentRoutes(r fiber.Router, h *gateway.Handler, idem fiber.Handler) {
	group := r.Group("/payments")
	group.Get("/", h.Transactions)
	if idem != nil {
		group.Post("/initiate", idem, h.Initiate)
	} else {
		group.Post("/initiate", h.Initiate)
	}
}

// RegisterCallbackRoutes wires the gateway's server-to-server callback. It
// sits outside JWT auth: the gateway authenticates by payload encryption and
// an optional IP allow-list, never by session.
func RegisterCallbackRoutes(r fiber.Router, h *gateway.Handler, ipAllow fiber.Handler) {
	r.Post("/payments/callback", ipAllow, h.Callback)
	r.Get("/payments/callback", h.CallbackGet)
}
