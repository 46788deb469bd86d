package main

import _ "embed"

// embeddedConfig holds the YAML configuration embedded at build time.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
