// Package view renders the site's HTML pages from gonja templates embedded in
// the binary.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"maps"

	"github.com/labstack/echo/v4"
	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/rs/zerolog"

	"github.com/tourismsite/tourism/internal/api/session"
	"github.com/tourismsite/tourism/internal/core/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page names.
const (
	PageIndex    = "index"
	PageAbout    = "about"
	PageLogin    = "login"
	PageRegister = "register"
	PageError    = "error"
)

var pageTitles = map[string]string{
	PageIndex:    "Home",
	PageAbout:    "About",
	PageLogin:    "Log in",
	PageRegister: "Register",
	PageError:    "Error",
}

// SessionView is the part of the session manager the layout needs.
type SessionView interface {
	Identity(c echo.Context) (domain.Identity, error)
	Flashes(c echo.Context) ([]session.Flash, error)
}

// Renderer implements echo.Renderer. Every page is rendered into the shared
// layout together with the pending flashes and the current user.
type Renderer struct {
	layout   *exec.Template
	pages    map[string]*exec.Template
	sessions SessionView
	log      zerolog.Logger
}

func NewRenderer(sessions SessionView, log zerolog.Logger) (*Renderer, error) {
	layout, err := parse("layout")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*exec.Template, len(pageTitles))
	for name := range pageTitles {
		tpl, err := parse(name)
		if err != nil {
			return nil, err
		}
		pages[name] = tpl
	}

	return &Renderer{layout: layout, pages: pages, sessions: sessions, log: log}, nil
}

func parse(name string) (*exec.Template, error) {
	src, err := templatesFS.ReadFile("templates/" + name + ".html")
	if err != nil {
		return nil, fmt.Errorf("view: read %s: %w", name, err)
	}
	tpl, err := gonja.FromBytes(src)
	if err != nil {
		return nil, fmt.Errorf("view: parse %s: %w", name, err)
	}
	return tpl, nil
}

// Render satisfies echo.Renderer. data must be nil or a map[string]any.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	page, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}

	vars := map[string]any{}
	if data != nil {
		m, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("view: page %q: data must be map[string]any, got %T", name, data)
		}
		maps.Copy(vars, m)
	}
	if _, ok := vars["title"]; !ok {
		vars["title"] = pageTitles[name]
	}

	var body bytes.Buffer
	if err := page.Execute(&body, exec.NewContext(vars)); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}

	vars["content"] = body.String()
	vars["flashes"] = r.flashes(c)
	vars["current_user"] = r.currentUser(c)

	if err := r.layout.Execute(w, exec.NewContext(vars)); err != nil {
		return fmt.Errorf("view: render layout for %s: %w", name, err)
	}
	return nil
}

// flashes pops the pending messages. Failures only cost the messages, the page
// still renders.
func (r *Renderer) flashes(c echo.Context) []map[string]any {
	flashes, err := r.sessions.Flashes(c)
	if err != nil {
		r.log.Warn().Err(err).Msg("reading flashes")
		return nil
	}

	out := make([]map[string]any, 0, len(flashes))
	for _, f := range flashes {
		out = append(out, map[string]any{"category": f.Category, "message": f.Message})
	}
	return out
}

func (r *Renderer) currentUser(c echo.Context) string {
	identity, err := r.sessions.Identity(c)
	if err != nil {
		r.log.Warn().Err(err).Msg("resolving identity for layout")
		return ""
	}
	u, ok := identity.User()
	if !ok {
		return ""
	}
	return u.Username
}
