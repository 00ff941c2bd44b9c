package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tourismsite/tourism/internal/api/view"
	"github.com/tourismsite/tourism/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps framework and store errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the error page, falling back to plain text if that fails.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}

		if rerr := c.Render(code, view.PageError, map[string]any{"code": code, "message": msg}); rerr != nil {
			log.Error().Err(rerr).Msg("rendering error page")
			_ = c.String(code, msg)
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (unknown route, method not allowed, ...)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Warn().Err(he.Internal).Int("status", he.Code).Str("path", c.Path()).Msg("request rejected")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	event := log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path())

	if errors.Is(err, domain.ErrStore) {
		event.Msg("store failure")
		return http.StatusInternalServerError, "A database error occurred."
	}

	event.Msg("unhandled error")
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
