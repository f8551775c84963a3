// Package config loads voicetimer settings.
//
// Settings are layered, later layers winning:
//
//  1. Defaults()
//  2. a YAML (.yaml, .yml) or TOML (.toml) file
//  3. a .env file, which only fills variables not already set
//  4. VOICETIMER_* environment variables
//  5. command-line flags, applied by the binary
//
// Call Validate after the last layer.
package config
