package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthSubjectLocalKey is the context locals key holding the subject claim
// of an authenticated request.
const AuthSubjectLocalKey = "auth_subject"

// Auth validates HS256 bearer tokens signed with secret. An empty secret
// disables the check and every request passes through. Probe, metrics and
// swagger paths are always open so scrapers and load balancers work without
// credentials.
func Auth(secret string) fiber.Handler {
	open := []string{"/health", "/healthz", "/metrics", "/swagger"}

	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		for _, p := range open {
			if c.Path() == p || strings.HasPrefix(c.Path(), p+"/") {
				return c.Next()
			}
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization format")
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, _ := claims.GetSubject(); sub != "" {
				c.Locals(AuthSubjectLocalKey, sub)
			}
		}

		return c.Next()
	}
}
