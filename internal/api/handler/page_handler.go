package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourismsite/tourism/internal/api/session"
	"github.com/tourismsite/tourism/internal/api/view"
)

type PageHandler struct {
	sessions *session.Manager
}

func NewPageHandler(sessions *session.Manager) *PageHandler {
	return &PageHandler{sessions: sessions}
}

// Root sends every visitor to the login page.
func (h *PageHandler) Root(c echo.Context) error {
	return c.Redirect(http.StatusFound, session.LoginPath)
}

// Home greets the logged-in user. Must run behind middleware.RequireLogin.
func (h *PageHandler) Home(c echo.Context) error {
	user, err := currentUser(c, h.sessions)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PageIndex, map[string]any{"username": user.Username})
}

func (h *PageHandler) About(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageAbout, nil)
}
