package server

import (
	_ "embed"
	"errors"
	"net/http"
)

//go:embed openapi.yaml
var openAPIDocument []byte

var errMissingAPIDocument = errors.New("api document not available")

// redocPage renders the embedded API document with Redoc
const redocPage = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>fxarb API</title>
  </head>
  <body>
    <redoc spec-url="/openapi.yaml"></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
  </body>
</html>`

// OpenAPI serves the rates and path search API document
func (s *Server) OpenAPI(w http.ResponseWriter, _ *http.Request) {
	if len(openAPIDocument) == 0 {
		writeError(w, http.StatusInternalServerError, errMissingAPIDocument)

		return
	}

	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(openAPIDocument) //nolint:errcheck // Fine to ignore
}

// Redoc serves the API docs page
func (s *Server) Redoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write([]byte(redocPage)) //nolint:errcheck // Fine to ignore
}
