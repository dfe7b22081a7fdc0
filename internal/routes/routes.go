package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/haatmakaam/backend/internal/account"
	"github.com/haatmakaam/backend/internal/auth"
	"github.com/haatmakaam/backend/internal/config"
	"github.com/haatmakaam/backend/internal/middleware"
	"github.com/haatmakaam/backend/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes. Store and
// Notifier are optional overrides; left nil they are derived from the
// configured infrastructure.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Store    account.Store
	Notifier notification.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Stores and services
	store := d.Store
	if store == nil {
		if d.DB != nil {
			store = account.NewPostgresStore(d.DB)
		} else {
			store = account.NewMemoryStore()
		}
	}

	notifier := d.Notifier
	if notifier == nil {
		if d.Cfg.TwilioConfigured() {
			notifier = notification.NewTwilioSender(d.Cfg.TwilioAccountSID, d.Cfg.TwilioAuthToken, d.Cfg.TwilioFromNumber)
		} else {
			notifier = notification.NewLoggerNotifier(d.Logger)
		}
	}

	tokens := auth.NewTokenService(d.Cfg.JWTSecret)
	authSvc := auth.NewService(store, auth.NewPasswordHasher(), auth.NewOtpGenerator(), tokens, notifier, d.Logger)
	authHandler := auth.NewHandler(authSvc, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	otpLimiter := middleware.OTPRateLimit(d.Cache, d.Cfg.OTPPerMinute)
	RegisterAuthRoutes(api, authHandler, otpLimiter)

	// Protected routes. The gate resolves bearer tokens into a principal;
	// RequireAuth makes the reject decision per group.
	api.Use(middleware.Authenticate(tokens, store))
	protected := api.Group("", middleware.RequireAuth())
	protected.Get("/me", func(c *fiber.Ctx) error {
		p, _ := middleware.PrincipalFrom(c)
		acct, err := store.FindByPhone(c.UserContext(), p.Phone)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "account no longer exists")
		}
		return c.JSON(fiber.Map{
			"account_id": acct.ID,
			"full_name":  acct.FullName,
			"phone":      acct.Phone,
			"role":       acct.Role,
			"verified":   acct.Verified(),
			"created_at": acct.CreatedAt,
		})
	})

	return nil
}
