package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var Template = `
<html>
  <head>
    <title>%s | Kansenkaart</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <meta name="description" content="%s">
    <meta name="referrer" content="no-referrer"/>
    <link rel="stylesheet" href="/kaart.css">
  </head>
  <body>
    <div id="head">
      <div id="brand">
        <a href="/">Kansenkaart</a>
      </div>
      <div id="nav">
        <a href="/">Kaart</a>
        <a href="/lijst">Lijst</a>
        <a href="/help">Help</a>
      </div>
    </div>
    <div id="container">
      <div id="content">%s</div>
    </div>
  </body>
</html>
`

// Response is a rendered page
type Response struct {
	Title       string
	Description string
	HTML        string
}

// Render a markdown document as html
func Render(md []byte) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(md)

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	return markdown.Render(doc, renderer)
}

// RenderHTML renders the given html in the site template
func RenderHTML(title, desc, body string) string {
	return fmt.Sprintf(Template, title, desc, body)
}

// Respond writes a templated HTML page
func Respond(w http.ResponseWriter, r *http.Request, rsp Response) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(RenderHTML(rsp.Title, rsp.Description, rsp.HTML)))
}

// RespondJSON writes v as a JSON response
func RespondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// RespondError writes a JSON error with the given status code
func RespondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// WantsJSON reports whether the client asked for a JSON response
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") ||
		r.URL.Query().Get("format") == "json"
}

// SendsJSON reports whether the client is posting a JSON body
func SendsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// BadRequest renders a 400 with a user-visible message
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	if WantsJSON(r) {
		RespondError(w, http.StatusBadRequest, msg)
		return
	}
	w.WriteHeader(http.StatusBadRequest)
	Respond(w, r, Response{Title: "Fout", HTML: `<p class="text-error">` + msg + `</p>`})
}

// ServerError renders a 500 with a user-visible message
func ServerError(w http.ResponseWriter, r *http.Request, msg string) {
	if WantsJSON(r) {
		RespondError(w, http.StatusInternalServerError, msg)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	Respond(w, r, Response{Title: "Fout", HTML: `<p class="text-error">` + msg + `</p>`})
}

// MethodNotAllowed rejects the request method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
