package coupon

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/giftkart/giftkart/internal/merchant"
)

// Handler exposes coupon catalogue endpoints over Fiber.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validator.New(), logger: logger}
}

type listRequest struct {
	Brand        string          `json:"brand" validate:"required,min=2"`
	Code         string          `json:"code" validate:"required,min=4"`
	Denomination decimal.Decimal `json:"denomination" validate:"required"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	ExpiresAt    *time.Time      `json:"expires_at"`
}

// Create handles POST /coupons.
func (h *Handler) Create(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("user_id").(string)

	var req listRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	created, err := h.service.List(c.UserContext(), ownerID, ListInput{
		Brand:        req.Brand,
		Code:         req.Code,
		Denomination: req.Denomination,
		Price:        req.Price,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, merchant.ErrNotFound):
			return fiber.NewError(fiber.StatusForbidden, "merchant profile required")
		case errors.Is(err, ErrMerchantNotApproved):
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		default:
			h.logger.Error("coupon listing failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// Available handles GET /coupons.
func (h *Handler) Available(c *fiber.Ctx) error {
	coupons, err := h.service.Available(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		h.logger.Error("coupon list failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not list coupons")
	}
	return c.JSON(fiber.Map{"coupons": coupons})
}

// Orders handles GET /orders for the authenticated buyer.
func (h *Handler) Orders(c *fiber.Ctx) error {
	buyerID, _ := c.Locals("user_id").(string)
	orders, err := h.service.Orders(c.UserContext(), buyerID, c.QueryInt("limit", 50))
	if err != nil {
		h.logger.Error("order list failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not list orders")
	}
	return c.JSON(fiber.Map{"orders": orders})
}
