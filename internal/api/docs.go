package api

import (
	"crypto/subtle"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

// openAPIJSON converts the embedded YAML document to JSON once.
var openAPIJSON = sync.OnceValues(func() ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(openAPIYAML, &doc); err != nil {
		return nil, fmt.Errorf("parsing openapi.yaml: %w", err)
	}
	return json.Marshal(jsonCompatible(doc))
})

// jsonCompatible rewrites maps with non-string keys, which encoding/json
// cannot marshal.
func jsonCompatible(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = jsonCompatible(e)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = jsonCompatible(e)
		}
		return m
	case []any:
		for i, e := range v {
			v[i] = jsonCompatible(e)
		}
		return v
	default:
		return v
	}
}

const swaggerPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>inventar API</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({
  url: "/openapi.json",
  dom_id: "#swagger-ui",
  tagsSorter: "alpha",
  operationsSorter: "alpha",
  docExpansion: "list",
  defaultModelsExpandDepth: -1,
  displayRequestDuration: true,
  tryItOutEnabled: true
});
</script>
</body>
</html>
`

// DocsHandler serves the API documentation behind HTTP Basic auth. With no
// credentials configured the documentation is not served at all.
type DocsHandler struct {
	Username string
	Password string
}

func (h *DocsHandler) enabled() bool {
	return h.Username != "" && h.Password != ""
}

// authorize reports whether the request may see the docs, writing the
// failure response when it may not.
func (h *DocsHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if !h.enabled() {
		jsonError(w, http.StatusNotFound, "not_found", "not_found")
		return false
	}

	user, pass, ok := r.BasicAuth()
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(h.Password)) == 1
	if !ok || !userOK || !passOK {
		w.Header().Set("WWW-Authenticate", `Basic realm="inventar docs"`)
		jsonError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return false
	}
	return true
}

// UI handles GET /docs.
func (h *DocsHandler) UI(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, swaggerPage)
}

// OpenAPI handles GET /openapi.json.
func (h *DocsHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	doc, err := openAPIJSON()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(doc)
}
