// Package server holds the status HTTP server configuration.
//
// The server only runs in watch mode. It exposes health, metrics and
// per-record status endpoints, all protected by the configured API key.
package server
