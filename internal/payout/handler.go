package payout

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/giftkart/giftkart/internal/merchant"
	"github.com/giftkart/giftkart/internal/wallet"
)

// Handler exposes payout endpoints over Fiber.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validator.New(), logger: logger}
}

type submitRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// Submit handles POST /payouts.
func (h *Handler) Submit(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("user_id").(string)

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	created, err := h.service.Submit(c.UserContext(), ownerID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, merchant.ErrNotFound):
			return fiber.NewError(fiber.StatusForbidden, "merchant profile required")
		case errors.Is(err, ErrMerchantNotApproved), errors.Is(err, ErrBankNotVerified):
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		case errors.Is(err, ErrBelowMinimum), errors.Is(err, wallet.ErrInvalidAmount):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, wallet.ErrInsufficientBalance):
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrPendingExists):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		default:
			h.logger.Error("payout submit failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "could not submit payout request")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// List handles GET /payouts for the authenticated merchant.
func (h *Handler) List(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("user_id").(string)
	requests, err := h.service.ListForOwner(c.UserContext(), ownerID, c.QueryInt("limit", 50))
	if err != nil {
		if errors.Is(err, merchant.ErrNotFound) {
			return fiber.NewError(fiber.StatusForbidden, "merchant profile required")
		}
		h.logger.Error("payout list failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not list payout requests")
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// ListPending handles GET /admin/payouts/pending.
func (h *Handler) ListPending(c *fiber.Ctx) error {
	requests, err := h.service.ListPending(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		h.logger.Error("pending payouts lookup failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not list payout requests")
	}
	return c.JSON(fiber.Map{"requests": requests})
}

type reviewRequest struct {
	Action string `json:"action" validate:"required,oneof=approved rejected released"`
	Note   string `json:"admin_note" validate:"omitempty,max=500"`
}

// Review handles PATCH /admin/payouts/:id.
func (h *Handler) Review(c *fiber.Ctx) error {
	reviewerID, _ := c.Locals("user_id").(string)

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	requestID := c.Params("id")
	var (
		updated Request
		err     error
	)
	switch req.Action {
	case StatusApproved:
		updated, err = h.service.Approve(c.UserContext(), reviewerID, requestID, req.Note)
	case StatusRejected:
		updated, err = h.service.Reject(c.UserContext(), reviewerID, requestID, req.Note)
	case StatusReleased:
		updated, err = h.service.Release(c.UserContext(), reviewerID, requestID, req.Note)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "payout request not found")
		case errors.Is(err, ErrConflict):
			return fiber.NewError(fiber.StatusConflict, "payout request is not in a reviewable state")
		default:
			h.logger.Error("payout review failed",
				slog.String("request_id", requestID),
				slog.String("action", req.Action),
				slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "could not update payout request")
		}
	}

	return c.JSON(updated)
}
