package instrumentation

import "os"

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: hostbridge)
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Enabled determines if instrumentation is active (default: true)
	// Set INSTRUMENTATION_ENABLED=false to disable metrics collection.
	Enabled bool
}

// DefaultConfig returns the default instrumentation configuration,
// honoring the INSTRUMENTATION_ENABLED environment variable.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "hostbridge",
		ServiceVersion: "dev",
		Enabled:        os.Getenv("INSTRUMENTATION_ENABLED") != "false",
	}
}
