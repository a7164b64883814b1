// Package web holds the server-rendered orders page.
package web

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"order-board/internal/board"
	"order-board/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PageTemplate is the name passed to gin's c.HTML.
const PageTemplate = "orders.html"

var funcs = template.FuncMap{
	"localDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02")
	},
	"yesNo": func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	},
	"stateClass": func(s models.OrderState) string {
		return "state-" + strings.ToLower(string(s))
	},
}

// Templates parses the embedded page templates for router.SetHTMLTemplate.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

// Page is the data handed to PageTemplate.
type Page struct {
	board.View
	// Flash reports a request-level problem the board itself did not record.
	Flash string
}
