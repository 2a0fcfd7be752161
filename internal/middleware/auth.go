package middleware

import (
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"careerlaunch_api/internal/apperrors"
	"careerlaunch_api/internal/services"
)

// RequireAuth returns a middleware that resolves the Authorization
// bearer token into a user identity via Firebase. The resolved
// identity is stored in the echo context for downstream handlers.
func RequireAuth(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return apperrors.New(apperrors.KindInternal, "Auth service not configured")
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return apperrors.New(apperrors.KindUnauthorized, "Authorization required")
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				return apperrors.New(apperrors.KindUnauthorized, "Invalid authorization format")
			}

			decoded, err := authClient.VerifyIDToken(c.Request().Context(), token)
			if err != nil {
				return apperrors.Wrap(apperrors.KindUnauthorized, "Invalid credentials", err)
			}

			user := services.UserIdentity{ID: decoded.UID}
			if email, ok := decoded.Claims["email"].(string); ok {
				user.Email = email
			}
			if user.Email == "" {
				return apperrors.New(apperrors.KindUnauthorized, "Invalid credentials")
			}

			c.Set("user", user)
			return next(c)
		}
	}
}

// CurrentUser returns the identity set by RequireAuth.
func CurrentUser(c echo.Context) (services.UserIdentity, bool) {
	user, ok := c.Get("user").(services.UserIdentity)
	return user, ok
}
