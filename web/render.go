package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/balliq/balliq-web/internal/domain"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Page template names. Each is rendered inside layout.html.
const (
	TemplateHome     = "home"
	TemplateLogin    = "login"
	TemplateRegister = "register"
	TemplateAboutUs  = "about_us"
	TemplateChat     = "chat"
	TemplateRedirect = "redirect"
)

var pageTemplates = []string{
	TemplateHome,
	TemplateLogin,
	TemplateRegister,
	TemplateAboutUs,
	TemplateChat,
	TemplateRedirect,
}

// Redirect describes an acknowledgment shown before forwarding to Target.
type Redirect struct {
	Message string
	Delay   time.Duration
	Target  string
}

// Seconds returns the delay in the form used by a meta refresh.
func (r Redirect) Seconds() string {
	return fmt.Sprintf("%g", r.Delay.Seconds())
}

// PageData is passed to every template.
type PageData struct {
	Content  *Content
	Page     domain.Page
	Username string
	Error    string
	Notice   string
	Messages []domain.Message
	Redirect *Redirect
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages    map[string]*template.Template
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
	logger   *slog.Logger
}

// NewRenderer parses every page template.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		pages: make(map[string]*template.Template, len(pageTemplates)),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
		logger: logger,
	}

	funcs := template.FuncMap{"markdown": r.Markdown}
	for _, name := range pageTemplates {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page to w. Output is buffered so a template error
// never produces a half-written page.
func (r *Renderer) Render(w io.Writer, name string, data PageData) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Markdown converts chat text to sanitized HTML.
func (r *Renderer) Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(text), &buf); err != nil {
		r.logger.Warn("Markdown conversion failed", "error", err)
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}
