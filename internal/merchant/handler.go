package merchant

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
)

// Handler exposes merchant onboarding endpoints over Fiber.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validator.New(), logger: logger}
}

type applyRequest struct {
	BusinessName  string `json:"business_name" validate:"required,min=2"`
	PAN           string `json:"pan" validate:"required,len=10"`
	GSTIN         string `json:"gstin" validate:"omitempty,len=15"`
	AccountNumber string `json:"account_number" validate:"required,min=6"`
	IFSC          string `json:"ifsc" validate:"required,len=11"`
	BankName      string `json:"bank_name" validate:"omitempty,min=2"`
}

// Apply handles POST /merchants.
func (h *Handler) Apply(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("user_id").(string)
	if ownerID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req applyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	m, err := h.service.Apply(c.UserContext(), ownerID, ApplyInput{
		BusinessName:  req.BusinessName,
		PAN:           req.PAN,
		GSTIN:         req.GSTIN,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
		BankName:      req.BankName,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExists):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case errors.Is(err, ErrDocumentRejected):
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("merchant apply failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "could not create merchant profile")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(m)
}

// Profile handles GET /merchants/me.
func (h *Handler) Profile(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("user_id").(string)
	m, err := h.service.GetByOwner(c.UserContext(), ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no merchant profile")
		}
		h.logger.Error("merchant lookup failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not load merchant profile")
	}
	return c.JSON(m)
}

// ListPending handles GET /admin/merchants/pending.
func (h *Handler) ListPending(c *fiber.Ctx) error {
	merchants, err := h.service.ListPending(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		h.logger.Error("pending merchants lookup failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not list merchants")
	}
	return c.JSON(fiber.Map{"merchants": merchants})
}

type reviewRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// Review handles PATCH /admin/merchants/:id.
func (h *Handler) Review(c *fiber.Ctx) error {
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	m, err := h.service.SetStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "merchant not found")
		}
		h.logger.Error("merchant review failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not update merchant")
	}
	return c.JSON(m)
}

// VerifyBank handles POST /admin/merchants/:id/verify-bank.
func (h *Handler) VerifyBank(c *fiber.Ctx) error {
	m, err := h.service.MarkBankVerified(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "merchant not found")
		}
		h.logger.Error("bank verification update failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not update merchant")
	}
	return c.JSON(m)
}
