// Package config provides configuration loading and validation for the
// emotion analysis client. It handles YAML-based configuration with struct
// validation and ships defaults that work against a local backend.
package config
