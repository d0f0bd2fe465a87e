// Package middleware provides authentication, logging, rate limiting, metrics
// and tracing middleware for the HTTP surface.
package middleware

import (
	"context"
	"strconv"
	"strings"

	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Principal is the caller identity asserted by the authentication layer. The
// engine trusts the role and tenant claims as given.
type Principal struct {
	UserID    uint        `json:"user_id"`
	Role      models.Role `json:"role"`
	TenantKey string      `json:"tenant"`
}

// Ref returns the principal as a user reference.
func (p Principal) Ref() models.UserRef {
	return models.UserRef{ID: p.UserID, Role: p.Role}
}

const principalLocal = "principal"

// AuthConfig configures token verification.
type AuthConfig struct {
	Secret string
	Issuer string
}

// Authenticate verifies the bearer token and stores the Principal in Fiber
// locals and in the request context.
func Authenticate(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		principal, err := ParseToken(parts[1], cfg)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		c.Locals(principalLocal, principal)
		ctx := context.WithValue(c.UserContext(), PrincipalKey, principal)
		ctx = context.WithValue(ctx, TenantKey, principal.TenantKey)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// ParseToken validates an HMAC-signed token and extracts the principal claims.
func ParseToken(tokenString string, cfg AuthConfig) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, models.NewUnauthorizedError("Invalid token claims")
	}

	if cfg.Issuer != "" {
		if issuer, _ := claims["iss"].(string); issuer != cfg.Issuer {
			return Principal{}, models.NewUnauthorizedError("Invalid token issuer")
		}
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Principal{}, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return Principal{}, models.NewUnauthorizedError("Invalid user ID in token")
	}

	role := models.Role(stringClaim(claims, "role"))
	if !role.Valid() {
		return Principal{}, models.NewUnauthorizedError("Invalid role claim")
	}

	tenantKey := stringClaim(claims, "tenant")
	if tenantKey == "" {
		return Principal{}, models.NewUnauthorizedError("Missing tenant claim")
	}

	return Principal{UserID: uint(userID), Role: role, TenantKey: tenantKey}, nil
}

// CurrentPrincipal returns the authenticated principal of the request.
func CurrentPrincipal(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalLocal).(Principal)
	return p, ok
}

// PrincipalFromContext returns the principal stored by Authenticate.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}

// SignToken issues a token carrying the principal claims. Used by tooling and
// tests; production tokens come from the authentication service.
func SignToken(p Principal, cfg AuthConfig) (string, error) {
	claims := jwt.MapClaims{
		"sub":    strconv.FormatUint(uint64(p.UserID), 10),
		"role":   string(p.Role),
		"tenant": p.TenantKey,
	}
	if cfg.Issuer != "" {
		claims["iss"] = cfg.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}
