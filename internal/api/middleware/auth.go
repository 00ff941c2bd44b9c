package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourismsite/tourism/internal/api/session"
	"github.com/tourismsite/tourism/internal/core/domain"
)

const loginRequiredMessage = "Please log in to access this page."

// SessionGuard is the part of session.Manager the login guard needs.
type SessionGuard interface {
	Identity(c echo.Context) (domain.Identity, error)
	AddFlash(c echo.Context, category, message string) error
}

// RequireLogin lets authenticated requests through. Anonymous visitors get a
// flash and a redirect to the login page instead of the route.
func RequireLogin(sessions SessionGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := sessions.Identity(c)
			if err != nil {
				return err
			}
			if identity.IsAuthenticated() {
				return next(c)
			}

			if err := sessions.AddFlash(c, session.CategoryWarning, loginRequiredMessage); err != nil {
				return err
			}
			return c.Redirect(http.StatusFound, session.LoginPath)
		}
	}
}
