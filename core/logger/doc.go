// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and integrates with the Fiber status server.
//
// # Context Awareness
//
// WithRayID attaches the request id of a Fiber request. WithRecord scopes a
// logger to one staged record so every line of its processing carries the
// transaction and order ids.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Pass started")
//
//	l := logger.WithRecord(log, rec.TransactionID, rec.OrderID)
//	l.Error("Customer lookup failed", zap.Error(err))
package logger
