package redis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "session:"
	defaultSessionTTL = 24 * time.Hour
)

// SessionStore is a sessions.Store keeping session values in Redis.
// The cookie carries only the signed session id.
// Key format: session:<id>
type SessionStore struct {
	client  *redis.Client
	codecs  []securecookie.Codec
	Options *sessions.Options
}

// NewSessionStore returns a store signing ids and values with keyPairs,
// following the same key rotation rules as sessions.NewCookieStore.
func NewSessionStore(client *redis.Client, opts *sessions.Options, keyPairs ...[]byte) *SessionStore {
	if opts == nil {
		opts = &sessions.Options{Path: "/", MaxAge: int(defaultSessionTTL.Seconds())}
	}

	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(opts.MaxAge)
		}
	}

	return &SessionStore{client: client, codecs: codecs, Options: opts}
}

// Get returns the session cached in the request registry, loading it on first use.
func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie. A missing,
// tampered or expired cookie yields an empty new session.
func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.codecs...); err != nil {
		return session, nil
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	if !found {
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save persists the session values and writes the id cookie. A negative
// MaxAge deletes the stored values and expires the cookie.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(ctx, s.key(session.ID)).Err(); err != nil {
				return fmt.Errorf("session delete: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	values, err := securecookie.EncodeMulti(session.Name(), session.Values, s.codecs...)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	if err := s.client.Set(ctx, s.key(session.ID), values, ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}

	encodedID, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("session encode id: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encodedID, session.Options))
	return nil
}

func (s *SessionStore) load(ctx context.Context, session *sessions.Session) (bool, error) {
	data, err := s.client.Get(ctx, s.key(session.ID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("session load: %w", err)
	}
	if err := securecookie.DecodeMulti(session.Name(), data, &session.Values, s.codecs...); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *SessionStore) key(id string) string {
	return sessionKeyPrefix + id
}
