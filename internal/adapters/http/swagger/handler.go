package swagger

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
)

// RedocScript is the ReDoc bundle the docs page loads.
const RedocScript = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"

// Option customizes the docs routes.
type Option func(*docs)

type docs struct {
	title string
}

// WithTitle sets the docs page title.
func WithTitle(title string) Option {
	return func(d *docs) {
		if title != "" {
			d.title = title
		}
	}
}

// Register attaches the docs routes to mux:
//
//	GET /api-docs      ReDoc page
//	GET /openapi.yaml  embedded OpenAPI document
//
// It panics on a nil mux, like http.Handle does on a nil handler.
func Register(_ context.Context, mux *http.ServeMux, opts ...Option) {
	if mux == nil {
		panic("swagger: nil mux")
	}
	d := &docs{title: "Judgeboard API Docs"}
	for _, opt := range opts {
		opt(d)
	}

	mux.HandleFunc("GET /api-docs", d.serveIndex)
	mux.HandleFunc("GET /openapi.yaml", serveDocument)
}

func (d *docs) serveIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexPage.Execute(w, struct{ Title, Script, DocURL string }{d.title, RedocScript, "/openapi.yaml"})
}

func serveDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(openAPIDoc)))
	_, _ = w.Write(openAPIDoc)
}

var indexPage = template.Must(template.New("redoc").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="{{.Script}}"></script>
    <script>Redoc.init({{.DocURL}}, { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`))
