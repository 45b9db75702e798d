// Package config loads the livecam TOML configuration.
//
// Load starts from Default, overlays the file if present, expands "~" in
// path fields and validates the result.
package config
