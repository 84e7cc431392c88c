package telemetry

// Config holds configuration for OpenTelemetry tracing.
type Config struct {
	// Enabled turns span export on. When off the global no-op provider is kept.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is the OTLP HTTP collector address (host:port).
	Endpoint string `mapstructure:"endpoint" default:"localhost:4318"`
	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure" default:"true"`
	// ServiceName is reported as service.name.
	ServiceName string `mapstructure:"service_name" default:"ecomm-sync"`
	// SampleRatio is the fraction of passes traced (1 traces everything).
	SampleRatio float64 `mapstructure:"sample_ratio" default:"1"`
}
