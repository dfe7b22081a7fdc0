package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/haatmakaam/backend/internal/account"
)

// Handler exposes the auth endpoints.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	AccountID string `json:"account_id"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Message   string `json:"message"`
	Delivery  string `json:"delivery,omitempty"`
}

// Register creates a pending account and triggers OTP delivery.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", err.Error())
	}
	res, err := h.svc.Register(c.UserContext(), RegisterInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return h.fail(c, err)
	}
	resp := registerResponse{
		AccountID: res.Account.ID,
		Phone:     res.Account.Phone,
		Role:      string(res.Account.Role),
		Message:   "registered, check your phone for the OTP",
	}
	if !res.Delivered {
		resp.Delivery = "failed"
	}
	return c.Status(http.StatusOK).JSON(resp)
}

type verifyRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// VerifyOTP consumes a submitted passcode.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", err.Error())
	}
	if err := h.svc.VerifyOTP(c.UserContext(), req.Phone, req.OTP); err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "phone number verified"})
}

type resendRequest struct {
	Phone string `json:"phone"`
}

// ResendOTP issues a fresh passcode for a pending account.
func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var req resendRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", err.Error())
	}
	if err := h.svc.ResendOTP(c.UserContext(), req.Phone); err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "a new OTP has been sent"})
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login authenticates and returns a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", err.Error())
	}
	token, err := h.svc.Login(c.UserContext(), req.Phone, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(loginResponse{Token: token, ExpiresIn: int64(tokenTTL.Seconds())})
}

// fail maps flow errors onto the stable wire taxonomy. Anything unmapped is
// logged in full and reported as a bare internal_error.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, account.ErrPhoneExists):
		return errorJSON(c, http.StatusBadRequest, "duplicate_phone", "phone number already registered")
	case errors.Is(err, ErrAccountNotFound):
		return errorJSON(c, http.StatusNotFound, "account_not_found", "no account for that phone number")
	case errors.Is(err, ErrInvalidOTP):
		return errorJSON(c, http.StatusBadRequest, "invalid_or_expired_otp", "the OTP provided is invalid or has expired")
	case errors.Is(err, ErrInvalidCredentials):
		return errorJSON(c, http.StatusUnauthorized, "invalid_credentials", "invalid phone number or password")
	case errors.Is(err, ErrAccountNotVerified):
		return errorJSON(c, http.StatusBadRequest, "account_not_verified", "verify your phone number before logging in")
	case errors.Is(err, ErrAlreadyVerified):
		return errorJSON(c, http.StatusConflict, "already_verified", "account is already verified")
	case errors.Is(err, ErrValidation):
		return errorJSON(c, http.StatusBadRequest, "bad_request", err.Error())
	}

	h.logger.Error("auth flow failed", "error", err, "path", c.Path())
	return errorJSON(c, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
}

func errorJSON(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": kind, "message": message})
}
