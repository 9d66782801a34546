package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftkart/giftkart/internal/merchant"
)

// RegisterMerchantRoutes wires merchant onboarding endpoints.
func RegisterMerchantRoutes(r fiber.Router, h *merchant.Handler) {
	group := r.Group("/merchants")
	group.Post("/", h.Apply)
	group.Get("/me", h.Profile)
}
