// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Each lifecycle component receives a named child logger so entries can be
// filtered by subsystem (scanner, installer, tracker, ports, autostart, catalog).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	log := logger.Component("installer")
//	log.Info("Installed package", zap.String("package", "weatherapp.zip"))
package logging
