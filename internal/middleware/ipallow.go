package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// IPAllowlist rejects callers whose address is not on the configured list.
// With an empty list every caller is admitted, matching deployments where the
// gateway's egress addresses are not pinned.
func IPAllowlist(allowed []string, logger *slog.Logger) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, ip := range allowed {
		allowedSet[ip] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, ok := allowedSet[c.IP()]; !ok {
			logger.Warn("callback from untrusted address",
				slog.String("ip", c.IP()), slog.String("path", c.Path()))
			return fiber.NewError(http.StatusForbidden, "forbidden")
		}
		return c.Next()
	}
}
