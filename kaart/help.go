package kaart

import (
	_ "embed"
	"net/http"

	"kansenkaart/app"
)

//go:embed help.md
var helpMarkdown []byte

//go:embed kaart.css
var stylesheet []byte

// HelpHandler serves /help, rendered from the embedded markdown
func HelpHandler(w http.ResponseWriter, r *http.Request) {
	app.Respond(w, r, app.Response{
		Title:       "Help",
		Description: "Uitleg over de kansenkaart",
		HTML:        string(app.Render(helpMarkdown)),
	})
}

// CSSHandler serves the site stylesheet
func CSSHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(stylesheet)
}
