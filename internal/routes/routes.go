package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/giftkart/giftkart/internal/auth"
	"github.com/giftkart/giftkart/internal/config"
	"github.com/giftkart/giftkart/internal/coupon"
	"github.com/giftkart/giftkart/internal/gateway"
	"github.com/giftkart/giftkart/internal/identity"
	"github.com/giftkart/giftkart/internal/merchant"
	"github.com/giftkart/giftkart/internal/middleware"
	"github.com/giftkart/giftkart/internal/notification"
	"github.com/giftkart/giftkart/internal/payout"
	"github.com/giftkart/giftkart/internal/verify"
	"github.com/giftkart/giftkart/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Events *kafka.Writer
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Stores fall back to in-memory implementations for local development.
	var (
		walletStore  wallet.Store
		noticeStore  notification.Store
		identityRepo identity.Repository
		merchantRepo merchant.Repository
		payoutRepo   payout.Repository
		couponStore  coupon.Store
		gatewayRepo  gateway.Repository
	)
	if d.DB != nil {
		walletStore = wallet.NewPostgresStore(d.DB)
		noticeStore = notification.NewPostgresStore(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		merchantRepo = merchant.NewPostgresRepository(d.DB)
		payoutRepo = payout.NewPostgresRepository(d.DB)
		couponStore = coupon.NewPostgresStore(d.DB)
		gatewayRepo = gateway.NewPostgresRepository(d.DB)
	} else {
		walletStore = wallet.NewMemoryStore()
		noticeStore = notification.NewMemoryStore()
		identityRepo = identity.NewMemoryRepository()
		merchantRepo = merchant.NewMemoryRepository()
		payoutRepo = payout.NewMemoryRepository()
		couponStore = coupon.NewMemoryStore()
		gatewayRepo = gateway.NewMemoryRepository()
	}

	walletSvc := wallet.NewService(walletStore, d.Logger)

	notifier := notification.Fanout{
		notification.NewStoreNotifier(noticeStore),
		notification.NewLoggerNotifier(d.Logger),
	}
	if d.Events != nil {
		notifier = append(notifier, notification.NewKafkaNotifier(d.Events))
	}

	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	authHandler := auth.NewHandler(identitySvc, authSvc)

	verifier := verify.NewClient(d.Cfg.Verify, d.Logger)
	merchantSvc := merchant.NewService(merchantRepo, verifier, notifier, d.Logger)
	merchantHandler := merchant.NewHandler(merchantSvc, d.Logger)

	payoutSvc := payout.NewService(payoutRepo, walletSvc, merchantSvc, identityRepo,
		notifier, d.Cfg.MinWithdrawal, d.Logger)
	payoutHandler := payout.NewHandler(payoutSvc, d.Logger)

	couponSvc := coupon.NewService(couponStore, merchantSvc, d.Logger)
	couponHandler := coupon.NewHandler(couponSvc, d.Logger)

	cipher, err := gateway.NewCipher(d.Cfg.Gateway.AuthKey, d.Cfg.Gateway.AuthIV)
	if err != nil {
		return err
	}
	gatewaySvc := gateway.NewService(gatewayRepo, cipher, walletSvc, couponStore,
		merchantRepo, notifier, d.Cfg.Gateway.ClientCode, d.Cfg.CommissionPct, d.Logger)
	gatewayHandler := gateway.NewHandler(gatewaySvc, d.Logger)

	walletHandler := wallet.NewHandler(walletSvc)
	noticeHandler := notification.NewHandler(noticeStore)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes.
	RegisterIdentityRoutes(api, identitySvc, walletSvc, d.Logger)
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, 5))
	RegisterCallbackRoutes(api, gatewayHandler, middleware.IPAllowlist(d.Cfg.Gateway.AllowedIPs, d.Logger))

	// Unsafe writes on money routes replay their stored response when the
	// client retries with the same Idempotency-Key.
	var idem fiber.Handler
	if d.Cache != nil {
		idem = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	// Protected routes.
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw)
	registerProfileRoute(protected, identityRepo)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterNotificationRoutes(protected, noticeHandler)
	RegisterMerchantRoutes(protected, merchantHandler)
	RegisterCouponRoutes(protected, couponHandler)
	RegisterPayoutRoutes(protected, payoutHandler, idem)
	RegisterPaymentRoutes(protected, gatewayHandler, idem)

	// Admin routes.
	admin := protected.Group("/admin", middleware.RequireRole(identity.RoleAdmin))
	RegisterAdminRoutes(admin, merchantHandler, payoutHandler)

	return nil
}

func registerProfileRoute(r fiber.Router, repo identity.Repository) {
	r.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := repo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_id":    user.ID,
			"phone":      user.Phone,
			"email":      user.Email,
			"name":       user.Name,
			"role":       user.Role,
			"created_at": user.CreatedAt,
			"last_login": user.LastLogin,
		})
	})
}
