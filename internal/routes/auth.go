package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haatmakaam/backend/internal/auth"
)

// RegisterAuthRoutes wires the registration, verification and login
// endpoints. The rate limiter guards the OTP-bearing routes.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, otpLimiter fiber.Handler) {
	group := r.Group("/auth")
	if otpLimiter != nil {
		group.Post("/register", otpLimiter, h.Register)
		group.Post("/verify-otp", otpLimiter, h.VerifyOTP)
		group.Post("/resend-otp", otpLimiter, h.ResendOTP)
	} else {
		group.Post("/register", h.Register)
		group.Post("/verify-otp", h.VerifyOTP)
		group.Post("/resend-otp", h.ResendOTP)
	}
	group.Post("/login", h.Login)
}
