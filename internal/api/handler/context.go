package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourismsite/tourism/internal/api/session"
	"github.com/tourismsite/tourism/internal/core/domain"
)

// currentUser returns the user resolved by the session guard and fails fast
// when a handler is reached without one, which means the route is missing
// middleware.RequireLogin.
func currentUser(c echo.Context, sessions *session.Manager) (domain.User, error) {
	identity, err := sessions.Identity(c)
	if err != nil {
		return domain.User{}, err
	}

	user, ok := identity.User()
	if !ok {
		return domain.User{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
	}
	return user, nil
}
