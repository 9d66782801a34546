package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftkart/giftkart/internal/coupon"
)

// RegisterCouponRoutes wires the coupon catalogue and order history.
func RegisterCouponRoutes(r fiber.Router, h *coupon.Handler) {
	group := r.Group("/coupons")
	group.Get("/", h.Available)
	group.Post("/", h.Create)
	r.Get("/orders", h.Orders)
}
