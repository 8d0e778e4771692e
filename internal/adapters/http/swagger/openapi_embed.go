package swagger

import _ "embed"

// openAPIDoc is the OpenAPI 3 description of the judgeboard HTTP API.
//
//go:embed openapi.yaml
var openAPIDoc []byte

// Document returns a copy of the embedded OpenAPI document.
func Document() []byte {
	out := make([]byte, len(openAPIDoc))
	copy(out, openAPIDoc)
	return out
}
