// Package spec embeds the OpenAPI description of the Stridelog API.
// The server serves it at /openapi.yaml and the Scalar UI at /docs reads it
// from there.
package spec

import _ "embed"

// OpenAPI contains the raw bytes of openapi.yaml, embedded at compile time.
//
//go:embed openapi.yaml
var OpenAPI []byte
