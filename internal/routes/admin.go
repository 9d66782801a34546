package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftkart/giftkart/internal/merchant"
	"github.com/giftkart/giftkart/internal/payout"
)

// RegisterAdminRoutes wires the review queues behind the admin role guard.
func RegisterAdminRoutes(r fiber.Router, merchants *merchant.Handler, payouts *payout.Handler) {
	r.Get("/merchants/pending", merchants.ListPending)
	r.Patch("/merchants/:id", merchants.Review)
	r.Post("/merchants/:id/verify-bank", merchants.VerifyBank)

	r.Get("/payouts/pending", payouts.ListPending)
	r.Patch("/payouts/:id", payouts.Review)
}
