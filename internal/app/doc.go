// Package app wires configuration, services, middleware and HTTP routes into
// a runnable server. cmd/web is a thin shell around Application.
package app
