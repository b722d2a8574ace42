// Package config provides 12-factor configuration for taskdock.
//
// Configuration is loaded from environment variables with defaults matching
// the device layout. An optional YAML file named by TASKDOCK_CONFIG is applied
// on top of the environment.
//
// Configuration Sections:
//   - Server: HTTP listen address
//   - Paths: CLI bin, lib, web app and profile locations
//   - Remote: Store roots, fetch timeout and retries
//   - Cache: Remote and installed-app freshness windows
//   - Process: Interpreter, start grace period, probe timeout
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting
//
// Environment Variables:
//   - TASKDOCK_PORT, TASKDOCK_HOST
//   - TASKDOCK_CLI_DIR, TASKDOCK_LIB_DIR, TASKDOCK_WEB_DIR, TASKDOCK_PROFILE
//   - TASKDOCK_CLI_URL, TASKDOCK_WEB_URL, TASKDOCK_EXTRAS_URL, TASKDOCK_FETCH_TIMEOUT
//   - TASKDOCK_REMOTE_TTL, TASKDOCK_INSTALLED_TTL
//   - TASKDOCK_INTERPRETER, TASKDOCK_START_GRACE, TASKDOCK_PROBE_TIMEOUT
//   - LOG_LEVEL, LOG_DEV, RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
