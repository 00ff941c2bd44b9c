package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tourismsite/tourism/internal/api/middleware"
	"github.com/tourismsite/tourism/internal/api/session"
	"github.com/tourismsite/tourism/internal/api/view"
	"github.com/tourismsite/tourism/internal/core/domain"
	"github.com/tourismsite/tourism/internal/core/ports"
)

const testSessionName = "test_session"

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (int64, error)
	loginFn    func(ctx context.Context, email, password string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (int64, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return s.loginFn(ctx, email, password)
}

type stubUsers map[int64]*domain.User

func (s stubUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func newTestEcho(t *testing.T, auth ports.AuthService, users session.UserFinder) *echo.Echo {
	t.Helper()

	e := echo.New()
	e.Validator = NewValidator()

	store := session.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), session.CookieOptions(time.Hour, false))
	e.Use(echosession.Middleware(store))

	sessions := session.NewManager(testSessionName, users, zerolog.Nop())
	renderer, err := view.NewRenderer(sessions, zerolog.Nop())
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e.Renderer = renderer

	authHandler := NewAuthHandler(auth, sessions, zerolog.Nop())
	pageHandler := NewPageHandler(sessions)
	requireAuth := middleware.RequireLogin(sessions)

	e.GET("/", pageHandler.Root)
	e.GET("/home", pageHandler.Home, requireAuth)
	e.GET("/about", pageHandler.About)
	e.GET("/register", authHandler.ShowRegister)
	e.POST("/register", authHandler.Register)
	e.GET("/login", authHandler.ShowLogin)
	e.POST("/login", authHandler.Login)
	e.GET("/logout", authHandler.Logout, requireAuth)
	return e
}

// browser replays the latest session cookie across requests.
type browser struct {
	t      *testing.T
	e      *echo.Echo
	cookie *http.Cookie
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return b.do(req)
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == testSessionName {
			b.cookie = c
		}
	}
	return rec
}

func registerValues(name, email, password, confirm string) url.Values {
	return url.Values{
		"name":             {name},
		"email":            {email},
		"password":         {password},
		"confirm_password": {confirm},
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (int64, error) {
			if in.Username != "alice" || in.Email != "a@x.com" || in.Password != "pw1" || in.ConfirmPassword != "pw1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return 1, nil
		},
	}
	b := &browser{t: t, e: newTestEcho(t, stub, stubUsers{})}

	rec := b.post("/register", registerValues("alice", "a@x.com", "pw1", "pw1"))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}

	page := b.get("/login").Body.String()
	if !strings.Contains(page, msgRegistered) {
		t.Fatalf("expected success flash on login page")
	}
}

func TestAuthHandler_Register_Failures(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"fields required", domain.ErrFieldsRequired, http.StatusUnprocessableEntity, msgFieldsRequired},
		{"password mismatch", domain.ErrPasswordMismatch, http.StatusUnprocessableEntity, msgPasswordMismatch},
		{"password too long", fmt.Errorf("register: %w", domain.ErrPasswordTooLong), http.StatusUnprocessableEntity, msgPasswordTooLong},
		{"email exists", domain.ErrEmailExists, http.StatusConflict, msgEmailExists},
		{"store failure", domain.NewStoreError("insert user", errors.New("connection refused")), http.StatusInternalServerError, msgStoreError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAuthService{
				registerFn: func(context.Context, ports.RegisterInput) (int64, error) {
					return 0, tc.err
				},
			}
			b := &browser{t: t, e: newTestEcho(t, stub, stubUsers{})}

			rec := b.post("/register", registerValues("bob", "b@x.com", "secret-pw", "secret-pw2"))
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tc.wantMsg) {
				t.Fatalf("expected %q in body:\n%s", tc.wantMsg, body)
			}
			if strings.Contains(body, "secret-pw") {
				t.Fatalf("password must not be echoed back")
			}
			if strings.Contains(body, "connection refused") {
				t.Fatalf("internal error leaked to the page")
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	alice := &domain.User{ID: 1, Username: "alice", Email: "a@x.com"}
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*domain.User, error) {
			if email != "a@x.com" || password != "pw1" {
				t.Fatalf("unexpected credentials: %s", email)
			}
			return alice, nil
		},
	}
	b := &browser{t: t, e: newTestEcho(t, stub, stubUsers{1: alice})}

	rec := b.post("/login", url.Values{"email": {"a@x.com"}, "password": {"pw1"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/home" {
		t.Fatalf("expected redirect to /home, got %q", loc)
	}

	home := b.get("/home")
	if home.Code != http.StatusOK {
		t.Fatalf("expected 200 on /home, got %d", home.Code)
	}
	body := home.Body.String()
	if !strings.Contains(body, "Welcome, alice!") || !strings.Contains(body, msgLoggedIn) {
		t.Fatalf("unexpected home page:\n%s", body)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*domain.User, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	b := &browser{t: t, e: newTestEcho(t, stub, stubUsers{})}

	rec := b.post("/login", url.Values{"email": {"a@x.com"}, "password": {"wrong-password"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, msgInvalidCredentials) {
		t.Fatalf("expected invalid credentials message")
	}
	if strings.Contains(body, "wrong-password") {
		t.Fatalf("password must not be echoed back")
	}

	if home := b.get("/home"); home.Code != http.StatusFound {
		t.Fatalf("expected no session after failed login, got %d", home.Code)
	}
}

func TestAuthHandler_Login_StoreError(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*domain.User, error) {
			return nil, domain.NewStoreError("find user by email", errors.New("timeout"))
		},
	}
	b := &browser{t: t, e: newTestEcho(t, stub, stubUsers{})}

	rec := b.post("/login", url.Values{"email": {"a@x.com"}, "password": {"pw"}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgStoreError) {
		t.Fatalf("expected generic store message")
	}
}

func TestAuthHandler_Login_EmptyFieldsSkipService(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*domain.User, error) {
			t.Fatalf("service must not be called for an empty form")
			return nil, nil
		},
	}
	b := &browser{t: t, e: newTestEcho(t, stub, stubUsers{})}

	rec := b.post("/login", url.Values{"email": {""}, "password": {""}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	alice := &domain.User{ID: 1, Username: "alice"}
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*domain.User, error) { return alice, nil },
	}
	b := &browser{t: t, e: newTestEcho(t, stub, stubUsers{1: alice})}

	b.post("/login", url.Values{"email": {"a@x.com"}, "password": {"pw1"}})

	rec := b.get("/logout")
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
	if page := b.get("/login").Body.String(); !strings.Contains(page, msgLoggedOut) {
		t.Fatalf("expected logout flash")
	}
	if home := b.get("/home"); home.Code != http.StatusFound {
		t.Fatalf("expected /home to redirect after logout, got %d", home.Code)
	}
}

func TestPageHandler_AnonymousRoutes(t *testing.T) {
	b := &browser{t: t, e: newTestEcho(t, &stubAuthService{}, stubUsers{})}

	if rec := b.get("/"); rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/login" {
		t.Fatalf("expected / to redirect to /login, got %d", rec.Code)
	}
	if rec := b.get("/about"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "About us") {
		t.Fatalf("expected about page, got %d", rec.Code)
	}
	if rec := b.get("/register"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="confirm_password"`) {
		t.Fatalf("expected register form, got %d", rec.Code)
	}

	rec := b.get("/home")
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/login" {
		t.Fatalf("expected /home to redirect anonymous visitors, got %d", rec.Code)
	}
	if page := b.get("/login").Body.String(); !strings.Contains(page, "Please log in to access this page.") {
		t.Fatalf("expected login-required flash")
	}
}
