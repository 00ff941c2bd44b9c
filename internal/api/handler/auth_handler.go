package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tourismsite/tourism/internal/api/metrics"
	"github.com/tourismsite/tourism/internal/api/session"
	"github.com/tourismsite/tourism/internal/api/view"
	"github.com/tourismsite/tourism/internal/core/domain"
	"github.com/tourismsite/tourism/internal/core/ports"
)

// User-facing messages.
const (
	msgFieldsRequired     = "All fields are required!"
	msgPasswordMismatch   = "Passwords do not match!"
	msgPasswordTooLong    = "Password is too long (at most 72 bytes)."
	msgEmailExists        = "Email already exists. Please log in."
	msgInvalidCredentials = "Invalid email or password."
	msgStoreError         = "A database error occurred."
	msgInvalidForm        = "Invalid form submission."

	msgRegistered = "Account created successfully! Please log in."
	msgLoggedIn   = "Login successful!"
	msgLoggedOut  = "You have been logged out."
)

const homePath = "/home"

type AuthHandler struct {
	authService ports.AuthService
	sessions    *session.Manager
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, sessions *session.Manager, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions, log: log}
}

type registerForm struct {
	Name            string `form:"name"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

type loginForm struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// ShowRegister renders the empty registration form.
func (h *AuthHandler) ShowRegister(c echo.Context) error {
	return h.renderRegister(c, http.StatusOK, "", "")
}

// Register creates an account from the submitted form. On success the visitor
// is sent to the login page; otherwise the form is rendered again with the
// reason and a status matching the failure.
func (h *AuthHandler) Register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return h.renderRegister(c, http.StatusBadRequest, msgInvalidForm, "")
	}

	_, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:        form.Name,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		status, msg := resolveAuthError(err, h.log, c)
		return h.renderRegister(c, status, msg, form.Name)
	}

	if err := h.sessions.AddFlash(c, session.CategorySuccess, msgRegistered); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, session.LoginPath)
}

func (h *AuthHandler) renderRegister(c echo.Context, status int, errMsg, name string) error {
	return c.Render(status, view.PageRegister, map[string]any{
		"error": errMsg,
		"name":  name,
	})
}

// ShowLogin renders the empty login form.
func (h *AuthHandler) ShowLogin(c echo.Context) error {
	return h.renderLogin(c, http.StatusOK, "")
}

// Login checks the submitted credentials and binds the user to the session.
// Unknown email and wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return h.renderLogin(c, http.StatusBadRequest, msgInvalidForm)
	}
	if err := c.Validate(&form); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultDenied).Inc()
		return h.renderLogin(c, http.StatusUnauthorized, msgInvalidCredentials)
	}

	user, err := h.authService.Login(c.Request().Context(), form.Email, form.Password)
	metrics.LoginsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		status, msg := resolveAuthError(err, h.log, c)
		return h.renderLogin(c, status, msg)
	}

	if err := h.sessions.Bind(c, user.ID); err != nil {
		return err
	}
	if err := h.sessions.AddFlash(c, session.CategorySuccess, msgLoggedIn); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, homePath)
}

func (h *AuthHandler) renderLogin(c echo.Context, status int, errMsg string) error {
	return c.Render(status, view.PageLogin, map[string]any{"error": errMsg})
}

// Logout drops everything bound to the session. Always succeeds for an
// authenticated visitor.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.Clear(c); err != nil {
		return err
	}
	metrics.LogoutsTotal.Inc()

	if err := h.sessions.AddFlash(c, session.CategoryInfo, msgLoggedOut); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, session.LoginPath)
}

// resolveAuthError maps auth workflow errors to a status and the message shown
// on the form. Unexpected errors are logged and reported generically.
func resolveAuthError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	switch {
	case errors.Is(err, domain.ErrFieldsRequired):
		return http.StatusUnprocessableEntity, msgFieldsRequired
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusUnprocessableEntity, msgPasswordMismatch
	case errors.Is(err, domain.ErrPasswordTooLong):
		return http.StatusUnprocessableEntity, msgPasswordTooLong
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, msgEmailExists
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("auth request failed")

	return http.StatusInternalServerError, msgStoreError
}
