// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"waypost/internal/config"
	"waypost/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

const (
	tokenIssuer   = "waypost-api"
	tokenAudience = "waypost-client"
)

// SessionFromLocals returns the session stored by AuthRequired/OptionalSession.
// The zero session means anonymous.
func SessionFromLocals(c *fiber.Ctx) models.Session {
	if s, ok := c.Locals("session").(models.Session); ok {
		return s
	}
	return models.Session{}
}

// AuthRequired is a middleware that enforces authentication for protected routes.
// On success it stores the resolved models.Session in locals and the explorer
// id in the request context for logging.
func AuthRequired(c *fiber.Ctx) error {
	session, err := parseBearerSession(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	storeSession(c, session)
	return c.Next()
}

// OptionalSession resolves a session when a valid token is present but lets
// anonymous requests through. Invalid tokens are treated as anonymous.
func OptionalSession(c *fiber.Ctx) error {
	if c.Get("Authorization") != "" {
		if session, err := parseBearerSession(c); err == nil {
			storeSession(c, session)
		}
	}
	return c.Next()
}

// AdminRequired rejects sessions without the admin role. It must run after
// AuthRequired.
func AdminRequired(c *fiber.Ctx) error {
	session := SessionFromLocals(c)
	if !session.IsAdmin() {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Admin access required"))
	}
	return c.Next()
}

func storeSession(c *fiber.Ctx, session models.Session) {
	c.Locals("session", session)
	c.Locals("explorerID", session.ExplorerID)
	ctx := context.WithValue(c.UserContext(), ExplorerIDKey, session.ExplorerID)
	c.SetUserContext(ctx)
}

func parseBearerSession(c *fiber.Ctx) (models.Session, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return models.Session{}, models.NewUnauthorizedError("Authorization required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.Session{}, models.NewUnauthorizedError("Invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return models.Session{}, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Session{}, models.NewUnauthorizedError("Invalid token claims")
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
		return models.Session{}, models.NewUnauthorizedError("Invalid token issuer")
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
		return models.Session{}, models.NewUnauthorizedError("Invalid token audience")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return models.Session{}, models.NewUnauthorizedError("Invalid subject claim")
	}
	explorerID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || explorerID == 0 {
		return models.Session{}, models.NewUnauthorizedError("Invalid explorer ID in token")
	}

	role := models.RoleUser
	if roleClaim, roleOk := claims["role"].(string); roleOk && models.Role(roleClaim).Valid() {
		role = models.Role(roleClaim)
	}

	return models.Session{ExplorerID: uint(explorerID), Role: role}, nil
}

// IssueToken signs a session token for the given explorer. Used by the auth
// handlers and by tests.
func IssueToken(explorerID uint, role models.Role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(explorerID), 10),
		"role": string(role),
		"iss":  tokenIssuer,
		"aud":  tokenAudience,
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
