// Package telemetry configures OpenTelemetry tracing.
//
// Init installs a global tracer provider that exports spans over OTLP HTTP.
// The reconciliation engine opens one span per pass and one per record, so a
// slow or failing record can be located in the trace backend.
package telemetry
