package gateway

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/giftkart/giftkart/internal/coupon"
	"github.com/giftkart/giftkart/internal/wallet"
)

// Handler exposes payment endpoints over Fiber.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validator.New(), logger: logger}
}

type initiateRequest struct {
	Purpose  string          `json:"purpose" validate:"required,oneof=WALLET_TOPUP GIFT_CARD"`
	TargetID string          `json:"target_id" validate:"omitempty,uuid4"`
	Amount   decimal.Decimal `json:"amount"`
}

// Initiate handles POST /payments/initiate.
func (h *Handler) Initiate(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("user_id").(string)

	var req initiateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Initiate(c.UserContext(), ownerID, req.Purpose, req.TargetID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPurpose), errors.Is(err, wallet.ErrInvalidAmount):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, coupon.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "coupon not found")
		case errors.Is(err, coupon.ErrNotAvailable):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		default:
			h.logger.Error("payment initiation failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "could not initiate payment")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// Transactions handles GET /payments for the authenticated user.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("user_id").(string)
	txns, err := h.service.Transactions(c.UserContext(), ownerID, c.QueryInt("limit", 50))
	if err != nil {
		h.logger.Error("transaction list failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not list transactions")
	}
	return c.JSON(fiber.Map{"transactions": txns})
}

// Callback handles POST /payments/callback from the gateway. Whatever
// happens inside, the caller gets a 303 redirect: a raw error here would
// put the gateway into a retry loop and strand the user's browser.
func (h *Handler) Callback(c *fiber.Ctx) error {
	target := FailureRedirect()
	func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("panic in payment callback", slog.Any("panic", r))
			}
		}()
		target = h.service.ProcessCallback(c.UserContext(), c.FormValue("encResponse"))
	}()
	return c.Redirect(target, fiber.StatusSeeOther)
}

// CallbackGet rejects GET probes against the callback endpoint. The gateway
// only ever POSTs; a GET here is someone poking at the URL.
func (h *Handler) CallbackGet(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusMethodNotAllowed, "callback accepts POST only")
}
