// Package configs embeds static configuration shipped with the binary.
package configs

import _ "embed"

// Manifest is the tool manifest served verbatim for manifest envelopes.
//
//go:embed manifest.json
var Manifest []byte
