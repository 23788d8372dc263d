package admin

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var weekdayHeaders = []string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// Renderer turns grids and details into HTML fragments. The live-sync hub
// pushes the same fragments the page embeds.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded admin templates.
func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"blanks":   func(n int) []struct{} { return make([]struct{}, n) },
		"weekdays": func() []string { return weekdayHeaders },
	}
	return &Renderer{
		tmpl: template.Must(template.New("admin").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
	}
}

// Calendar renders the month grid fragment.
func (r *Renderer) Calendar(grid MonthGrid) (string, error) {
	return r.fragment("calendar", grid)
}

// Detail renders the day detail fragment.
func (r *Renderer) Detail(detail DayDetail) (string, error) {
	return r.fragment("detail", detail)
}

func (r *Renderer) fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("admin: render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) page(w io.Writer, data pageData) error {
	if err := r.tmpl.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("admin: render page: %w", err)
	}
	return nil
}
