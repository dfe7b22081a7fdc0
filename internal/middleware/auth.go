package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/haatmakaam/backend/internal/account"
	"github.com/haatmakaam/backend/internal/auth"
)

const principalKey = "principal"

// Principal is the request-time identity projection attached by the gate.
// It deliberately carries less than the storage entity.
type Principal struct {
	AccountID string
	Phone     string
	Role      account.Role
}

// PrincipalFrom returns the authenticated principal for the request, if any.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}

// Authenticate resolves a bearer token into a request principal. Requests
// without a token, or with one that fails validation, proceed
// unauthenticated; rejecting them is the downstream route's decision. An
// already-resolved principal is never overwritten.
func Authenticate(tokens *auth.TokenService, store account.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFrom(c); ok {
			return c.Next()
		}

		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return c.Next()
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := tokens.Validate(tokenStr)
		if err != nil {
			return c.Next()
		}

		// Re-fetch so the principal reflects the live account, not the
		// claims snapshot from issuance time.
		acct, err := store.FindByPhone(c.UserContext(), claims.Subject)
		if err != nil {
			return c.Next()
		}

		c.Locals(principalKey, Principal{AccountID: acct.ID, Phone: acct.Phone, Role: acct.Role})
		return c.Next()
	}
}

// RequireAuth rejects requests that reached it without a resolved principal.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFrom(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, "missing or invalid bearer token")
		}
		return c.Next()
	}
}
