// Package api embeds the OpenAPI description of the HTTP API.
package api

import _ "embed"

// OpenAPISpec is served at /api/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
