// Package config loads configuration for the wen binaries.
//
// The record store (wen-store) reads YAML:
//
//	server:
//	  http_addr: ":8780"
//	database:
//	  path: "${HOME}/.local/share/wen/store.db"
//	auth:
//	  jwt_secret: "${WEN_JWT_SECRET}"
//	  token_ttl: "720h"
//	entries:
//	  dedupe_ttl: "24h"
//	  dedupe_size: 10000
//	history:
//	  default_limit: 30
//	  max_limit: 365
//	logging:
//	  level: "info"
//	  format: "text"
//
// The CLI (wen) reads TOML and then overlays WEN_* environment variables:
//
//	identity = "u1"
//
//	[remote]
//	api_base = "http://localhost:8780"
//	token = "${WEN_TOKEN}"
//	request_timeout = "10s"
//
//	[cache]
//	path = "/home/me/.local/share/wen/cache.db"
//
//	[logging]
//	level = "warn"
//
// Both formats expand ${VAR} references from the environment before parsing.
// Durations are written as Go duration strings.
package config
