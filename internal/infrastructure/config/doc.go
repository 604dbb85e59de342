// Package config loads and validates Keydeck Core configuration.
//
// Configuration is YAML-based with three layers of precedence:
//
//  1. Hardcoded defaults (defaultConfig)
//  2. The YAML file (configs/config.yaml by default)
//  3. KEYDECK_* environment variables
//
// The loaded Config is immutable after startup; components receive the
// sections they need by value.
package config
