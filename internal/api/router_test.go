package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tourismsite/tourism/internal/api/session"
	"github.com/tourismsite/tourism/internal/core/ports"
	"github.com/tourismsite/tourism/internal/core/service"
	"github.com/tourismsite/tourism/internal/infrastructure/db/memory"
)

type failingChecker struct{}

func (failingChecker) Name() string               { return "postgres" }
func (failingChecker) Ping(context.Context) error { return errors.New("connection refused") }

type site struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	repo   *memory.UserRepository
}

func newSite(t *testing.T, checkers ...ports.HealthChecker) *site {
	t.Helper()
	return newSiteWithScheme(t, service.PlainScheme{}, checkers...)
}

func newSiteWithScheme(t *testing.T, scheme service.PasswordScheme, checkers ...ports.HealthChecker) *site {
	t.Helper()

	repo := memory.NewUserRepository()
	auth := service.NewAuthService(repo, scheme, zerolog.Nop())
	store := session.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), session.CookieOptions(time.Hour, false))

	e, err := NewRouter(Deps{
		Auth:         auth,
		Users:        repo,
		SessionStore: store,
		SessionName:  "tourism_session",
		Checkers:     checkers,
		Log:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &site{t: t, srv: srv, client: client, repo: repo}
}

type page struct {
	status   int
	location string
	body     string
}

func (s *site) get(path string) page {
	s.t.Helper()
	resp, err := s.client.Get(s.srv.URL + path)
	if err != nil {
		s.t.Fatalf("GET %s: %v", path, err)
	}
	return readPage(s.t, resp)
}

func (s *site) post(path string, form url.Values) page {
	s.t.Helper()
	resp, err := s.client.PostForm(s.srv.URL+path, form)
	if err != nil {
		s.t.Fatalf("POST %s: %v", path, err)
	}
	return readPage(s.t, resp)
}

func readPage(t *testing.T, resp *http.Response) page {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return page{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(body)}
}

func (s *site) register(name, email, password, confirm string) page {
	return s.post("/register", url.Values{
		"name":             {name},
		"email":            {email},
		"password":         {password},
		"confirm_password": {confirm},
	})
}

func (s *site) login(email, password string) page {
	return s.post("/login", url.Values{"email": {email}, "password": {password}})
}

func TestSite_AliceJourney(t *testing.T) {
	s := newSite(t)

	p := s.register("alice", "a@x.com", "pw1", "pw1")
	if p.status != http.StatusFound || p.location != "/login" {
		t.Fatalf("register: expected 302 /login, got %d %q", p.status, p.location)
	}
	if s.repo.Count() != 1 {
		t.Fatalf("expected one stored user, got %d", s.repo.Count())
	}
	if u, err := s.repo.FindByEmail(context.Background(), "a@x.com"); err != nil || u.ID != 1 {
		t.Fatalf("expected alice with id 1, got %+v, %v", u, err)
	}

	if p := s.get("/login"); !strings.Contains(p.body, "Account created successfully! Please log in.") {
		t.Fatalf("expected registration flash")
	}

	p = s.login("a@x.com", "pw1")
	if p.status != http.StatusFound || p.location != "/home" {
		t.Fatalf("login: expected 302 /home, got %d %q", p.status, p.location)
	}

	p = s.get("/home")
	if p.status != http.StatusOK || !strings.Contains(p.body, "alice") {
		t.Fatalf("home: expected 200 with username, got %d", p.status)
	}
	if !strings.Contains(p.body, "Login successful!") {
		t.Fatalf("home: expected login flash")
	}

	p = s.get("/logout")
	if p.status != http.StatusFound || p.location != "/login" {
		t.Fatalf("logout: expected 302 /login, got %d %q", p.status, p.location)
	}

	p = s.get("/home")
	if p.status != http.StatusFound || p.location != "/login" {
		t.Fatalf("home after logout: expected 302 /login, got %d %q", p.status, p.location)
	}
}

func TestSite_RegistrationFailures(t *testing.T) {
	s := newSite(t)

	p := s.register("bob", "b@x.com", "pw", "pw2")
	if p.status != http.StatusUnprocessableEntity || !strings.Contains(p.body, "Passwords do not match!") {
		t.Fatalf("mismatch: got %d", p.status)
	}

	p = s.register("", "b@x.com", "pw", "pw")
	if p.status != http.StatusUnprocessableEntity || !strings.Contains(p.body, "All fields are required!") {
		t.Fatalf("missing name: got %d", p.status)
	}
	if s.repo.Count() != 0 {
		t.Fatalf("expected no stored users, got %d", s.repo.Count())
	}

	s.register("carol", "c@x.com", "pw", "pw")
	p = s.register("carol2", "c@x.com", "other", "other")
	if p.status != http.StatusConflict || !strings.Contains(p.body, "Email already exists. Please log in.") {
		t.Fatalf("duplicate: got %d", p.status)
	}
	if s.repo.Count() != 1 {
		t.Fatalf("expected exactly one row for the email, got %d", s.repo.Count())
	}
}

func TestSite_BcryptRejectsOversizedPassword(t *testing.T) {
	s := newSiteWithScheme(t, service.BcryptScheme{Cost: 4})

	long := strings.Repeat("x", 80)
	p := s.register("erin", "e@x.com", long, long)
	if p.status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", p.status)
	}
	if !strings.Contains(p.body, "Password is too long") || strings.Contains(p.body, "A database error occurred.") {
		t.Fatalf("expected password length message, got:\n%s", p.body)
	}
	if s.repo.Count() != 0 {
		t.Fatalf("expected no stored users, got %d", s.repo.Count())
	}

	p = s.register("erin", "e@x.com", "s3cr3t-Sh0rt", "s3cr3t-Sh0rt")
	if p.status != http.StatusFound {
		t.Fatalf("expected a short password to register, got %d", p.status)
	}
	if p := s.login("e@x.com", "s3cr3t-Sh0rt"); p.status != http.StatusFound || p.location != "/home" {
		t.Fatalf("expected bcrypt login to succeed, got %d %q", p.status, p.location)
	}
}

func TestSite_LoginFailures(t *testing.T) {
	s := newSite(t)
	s.register("dave", "d@x.com", "s3cr3t-R1ght", "s3cr3t-R1ght")

	for _, creds := range [][2]string{{"d@x.com", "s3cr3t-Wr0ng"}, {"nobody@x.com", "s3cr3t-R1ght"}} {
		p := s.login(creds[0], creds[1])
		if p.status != http.StatusUnauthorized || !strings.Contains(p.body, "Invalid email or password.") {
			t.Fatalf("login %s: expected 401, got %d", creds[0], p.status)
		}
		if strings.Contains(p.body, creds[1]) {
			t.Fatalf("password echoed back")
		}
	}

	if p := s.get("/home"); p.status != http.StatusFound {
		t.Fatalf("expected no session after failed logins, got %d", p.status)
	}
}

func TestSite_PublicPages(t *testing.T) {
	s := newSite(t)

	if p := s.get("/"); p.status != http.StatusFound || p.location != "/login" {
		t.Fatalf("root: got %d %q", p.status, p.location)
	}
	if p := s.get("/about"); p.status != http.StatusOK {
		t.Fatalf("about: got %d", p.status)
	}
	if p := s.get("/logout"); p.status != http.StatusFound || p.location != "/login" {
		t.Fatalf("anonymous logout: got %d %q", p.status, p.location)
	}

	p := s.get("/no-such-page")
	if p.status != http.StatusNotFound || !strings.Contains(p.body, "<h1>404</h1>") {
		t.Fatalf("unknown route: got %d", p.status)
	}
}

func TestSite_Health(t *testing.T) {
	if p := newSite(t).get("/health/ready"); p.status != http.StatusOK {
		t.Fatalf("ready without dependencies: got %d", p.status)
	}

	s := newSite(t, failingChecker{})
	if p := s.get("/health"); p.status != http.StatusOK {
		t.Fatalf("liveness: got %d", p.status)
	}
	p := s.get("/health/ready")
	if p.status != http.StatusServiceUnavailable || !strings.Contains(p.body, "connection refused") {
		t.Fatalf("readiness: got %d %s", p.status, p.body)
	}
}
