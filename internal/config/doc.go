// Package config loads the boardauth server configuration from YAML and
// BOARDAUTH_* environment variables.
package config
