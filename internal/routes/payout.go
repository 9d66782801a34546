package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftkart/giftkart/internal/payout"
)

// RegisterPayoutRoutes wires merchant payout endpoints. The submit route
// takes the idempotency middleware when Redis is available.
func RegisterPayoutRoutes(r fiber.Router, h *payout.Handler, idem fiber.Handler) {
	group := r.Group("/payouts")
	group.Get("/", h.List)
	if idem != nil {
		group.Post("/", idem, h.Submit)
	} else {
		group.Post("/", h.Submit)
	}
}
