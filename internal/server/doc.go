// Package server implements the local diagnostics HTTP server: session
// history, client statistics, the effective configuration and Prometheus
// metrics. It binds to loopback by default and never serves audio.
package server
