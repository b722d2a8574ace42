/*
Package monitoring provides metrics collection for taskdock.

# Overview

Each Metrics value owns a private Prometheus registry, so several servers
(or tests) can live in one process without duplicate registration.

# Features

- HTTP request metrics (latency, status, response size)
- Lifecycle operations (start, stop, install, delete, auto-start) by outcome
- Cache lookups by result (hit, miss, stale, error)
- Port detections by winning strategy
- Running and installed app gauges, uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "install", "web")
	err := doInstall()
	timer.Stop(err)
*/
package monitoring
