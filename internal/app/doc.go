// Package app wires the ECL server together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the YAML file and ECL_* variables
//	2. Initialize the JSON logger and OpenTelemetry providers
//	3. Create the ECL and health services
//	4. Build the chi router and the http.Server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    slog.Error("failed to initialize application", slog.String("error", err.Error()))
//	    os.Exit(1)
//	}
//	if err := application.Run(); err != nil {
//	    ...
//	}
//
// Tests build the application from an explicit configuration with New and
// drive it through Start and Stop.
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, or until the server fails. Stop drains
// in-flight requests within Server.ShutdownTimeout, flushes telemetry and
// closes the log file. The package never calls os.Exit.
package app
