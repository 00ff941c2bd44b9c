// Package session binds authenticated users to browser sessions and carries
// flash messages between requests. It sits on top of gorilla/sessions through
// the echo-contrib session middleware, so any sessions.Store works as backend.
package session

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tourismsite/tourism/internal/api/metrics"
	"github.com/tourismsite/tourism/internal/core/domain"
)

const (
	userIDKey   = "user_id"
	identityKey = "session.identity"

	// LoginPath is where anonymous visitors of guarded pages are sent.
	LoginPath = "/login"
)

// Flash categories understood by the layout template.
const (
	CategorySuccess = "success"
	CategoryDanger  = "danger"
	CategoryInfo    = "info"
	CategoryWarning = "warning"
)

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	// Session values are gob encoded by both cookie and redis stores.
	gob.Register(Flash{})
}

// UserFinder resolves the user bound to a session.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// Manager reads and writes the session of the current request.
// The echosession middleware must run before any Manager method is used.
type Manager struct {
	name  string
	users UserFinder
	log   zerolog.Logger
}

func NewManager(name string, users UserFinder, log zerolog.Logger) *Manager {
	return &Manager{name: name, users: users, log: log}
}

// CookieOptions returns the cookie attributes shared by every session backend.
func CookieOptions(maxAge time.Duration, secure bool) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookieStore returns a signed cookie store using opts for every session.
func NewCookieStore(secret []byte, opts *sessions.Options) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.MaxAge(opts.MaxAge)
	o := *opts
	store.Options = &o
	return store
}

// get returns the request session. An unreadable cookie (tampered, signed with
// an old key, expired) yields a fresh session instead of an error.
func (m *Manager) get(c echo.Context) (*sessions.Session, error) {
	sess, err := echosession.Get(m.name, c)
	if err == nil {
		return sess, nil
	}

	var cerr securecookie.Error
	if sess != nil && errors.As(err, &cerr) && cerr.IsDecode() {
		m.log.Debug().Err(err).Msg("discarding unreadable session cookie")
		return sess, nil
	}
	return nil, fmt.Errorf("session: load: %w", err)
}

func (m *Manager) save(c echo.Context, sess *sessions.Session) error {
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// CurrentIdentity returns the user id bound to the session, if any.
func (m *Manager) CurrentIdentity(c echo.Context) (int64, bool, error) {
	sess, err := m.get(c)
	if err != nil {
		return 0, false, err
	}
	id, ok := sess.Values[userIDKey].(int64)
	return id, ok, nil
}

// Bind stores id in the session and saves it.
func (m *Manager) Bind(c echo.Context, id int64) error {
	sess, err := m.get(c)
	if err != nil {
		return err
	}
	sess.Values[userIDKey] = id
	c.Set(identityKey, nil)
	return m.save(c, sess)
}

// Clear removes every value from the session and saves it.
func (m *Manager) Clear(c echo.Context) error {
	sess, err := m.get(c)
	if err != nil {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	c.Set(identityKey, domain.Anonymous())
	return m.save(c, sess)
}

// Identity returns the identity of the current request. The bound user is
// looked up at most once per request. A session whose user no longer exists
// is cleared and treated as anonymous.
func (m *Manager) Identity(c echo.Context) (domain.Identity, error) {
	if cached, ok := c.Get(identityKey).(domain.Identity); ok {
		return cached, nil
	}

	id, ok, err := m.CurrentIdentity(c)
	if err != nil {
		return domain.Anonymous(), err
	}
	if !ok {
		c.Set(identityKey, domain.Anonymous())
		return domain.Anonymous(), nil
	}

	user, err := m.users.FindByID(c.Request().Context(), id)
	metrics.IdentityRehydrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		m.log.Warn().Int64("user_id", id).Msg("session bound to unknown user, clearing")
		if err := m.Clear(c); err != nil {
			return domain.Anonymous(), err
		}
		return domain.Anonymous(), nil
	case err != nil:
		return domain.Anonymous(), fmt.Errorf("session: rehydrate user %d: %w", id, err)
	}

	identity := domain.Authenticated(*user)
	c.Set(identityKey, identity)
	return identity, nil
}

// AddFlash queues a message for the next rendered page.
func (m *Manager) AddFlash(c echo.Context, category, message string) error {
	sess, err := m.get(c)
	if err != nil {
		return err
	}
	sess.AddFlash(Flash{Category: category, Message: message})
	return m.save(c, sess)
}

// Flashes pops every pending flash. Each message is returned once.
func (m *Manager) Flashes(c echo.Context) ([]Flash, error) {
	sess, err := m.get(c)
	if err != nil {
		return nil, err
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	if err := m.save(c, sess); err != nil {
		return nil, err
	}
	return out, nil
}
