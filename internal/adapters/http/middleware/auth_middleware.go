package middleware

import (
	"strings"

	"bondledger/internal/config"
	"bondledger/internal/core/domain"
	"bondledger/internal/pkg/jwt"
	"bondledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates authentication middleware. The authenticated party's
// ledger identity rides on the request context; handlers never take the
// acting party from the request body.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try to get token from cookie first
		accessToken = c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 5. Set party info in context
		c.Locals("partyID", claims.PartyID)
		c.Locals("partyName", claims.PartyName)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// PartyName returns the authenticated party's ledger name
func PartyName(c *fiber.Ctx) string {
	name, _ := c.Locals("partyName").(string)
	return name
}

// PartyID returns the authenticated party's id
func PartyID(c *fiber.Ctx) uint {
	id, _ := c.Locals("partyID").(uint)
	return id
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if domain.Role(role) == allowed {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// BankOnly middleware allows only BANK parties
func BankOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleBank)
}

// CentralBankOnly middleware allows only CENTRAL_BANK parties
func CentralBankOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleCentralBank)
}

// BankOrCentralBank middleware allows BANK or CENTRAL_BANK parties
func BankOrCentralBank() fiber.Handler {
	return RoleMiddleware(domain.RoleBank, domain.RoleCentralBank)
}
