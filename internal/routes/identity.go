package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/giftkart/giftkart/internal/identity"
	"github.com/giftkart/giftkart/internal/wallet"
)

type registerRequest struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// RegisterIdentityRoutes wires account registration. A wallet is provisioned
// eagerly so the first top-up does not race lazy creation.
func RegisterIdentityRoutes(r fiber.Router, ids *identity.Service, wallets *wallet.Service, logger *slog.Logger) {
	r.Post("/register", func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request payload")
		}

		user, err := ids.Register(c.UserContext(), identity.Credentials{
			Phone:    req.Phone,
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		if _, err := wallets.GetOrCreateWallet(c.UserContext(), user.ID); err != nil {
			logger.Warn("wallet provisioning failed at registration",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}

		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"user_id": user.ID,
			"phone":   user.Phone,
			"role":    user.Role,
		})
	})
}
