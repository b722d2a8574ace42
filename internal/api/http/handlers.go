package http

import (
	"context"
	"net/http"
	"time"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Apps is the lifecycle surface the handlers drive
type Apps interface {
	ListInstalled(kind types.Kind) []types.AppRecord
	ListRunning(ctx context.Context) []types.RunningApp
	ManagedWebApps(ctx context.Context) []types.ManagedApp
	Start(ctx context.Context, name string, kind types.Kind) (types.ProcessRecord, error)
	Stop(pid int) error
	ResolvePort(ctx context.Context, pid int) (int, error)
	Install(ctx context.Context, file string, kind types.Kind) (types.InstallReport, error)
	Delete(name string, kind types.Kind) error
	EnableAutoStart(name string, kind types.Kind) error
	DisableAutoStart(name string) error
	IsAutoStartEnabled(name string, kind types.Kind) bool
	AutoStartStatuses() []types.AutoStartStatus
	Available(ctx context.Context, kind types.Kind) []types.Package
	Catalog(ctx context.Context, kind types.Kind) map[string]types.CatalogEntry
	Describe(ctx context.Context, name string, kind types.Kind) (types.CatalogEntry, bool)
	Extras(ctx context.Context) []types.Extra
}

// RemoteStatus reports the health of the remote store connection
type RemoteStatus interface {
	BreakerState() resilience.State
	BreakerCounts() resilience.Counts
}

// Handlers contains all HTTP handlers
type Handlers struct {
	apps    Apps
	metrics *monitoring.Metrics
	remote  RemoteStatus
	log     *zap.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(apps Apps, metrics *monitoring.Metrics, remote RemoteStatus, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		apps:    apps,
		metrics: metrics,
		remote:  remote,
		log:     log,
	}
}

// Register mounts every route on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/health", h.Health)

	router.GET("/apps", h.ListApps)
	router.GET("/apps/managed", h.ManagedApps)
	router.POST("/apps/:kind/:name/start", h.StartApp)
	router.DELETE("/apps/:kind/:name", h.DeleteApp)

	router.GET("/packages/:kind", h.AvailablePackages)
	router.POST("/packages/:kind/:file/install", h.InstallPackage)

	router.GET("/processes", h.ListProcesses)
	router.POST("/processes/:pid/stop", h.StopProcess)
	router.GET("/processes/:pid/port", h.ProcessPort)

	router.GET("/autostart", h.ListAutoStart)
	router.GET("/autostart/:kind/:name", h.GetAutoStart)
	router.PUT("/autostart/:kind/:name", h.EnableAutoStart)
	router.DELETE("/autostart/:name", h.DisableAutoStart)

	router.GET("/catalog/:kind", h.GetCatalog)
	router.GET("/catalog/:kind/:name", h.DescribeApp)
	router.GET("/extras", h.ListExtras)

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
		router.GET("/metrics/json", h.MetricsSummary)
	}
}

// Health returns service health
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}
	if h.metrics != nil {
		resp["uptime_seconds"] = h.metrics.Snapshot().UptimeSeconds
	}
	if h.remote != nil {
		resp["remote_store"] = h.remote.BreakerState().String()
	}
	c.JSON(http.StatusOK, resp)
}

// MetricsSummary returns the headline counters as JSON
func (h *Handlers) MetricsSummary(c *gin.Context) {
	snap := h.metrics.Snapshot()

	errorRate := 0.0
	if snap.TotalRequests > 0 {
		errorRate = float64(snap.TotalErrors) / float64(snap.TotalRequests)
	}

	resp := gin.H{
		"timestamp":      time.Now().UTC(),
		"total_requests": snap.TotalRequests,
		"error_rate":     errorRate,
		"running_apps":   snap.RunningApps,
		"operations":     snap.Operations,
		"failed_ops":     snap.FailedOps,
		"uptime_seconds": snap.UptimeSeconds,
	}
	if h.remote != nil {
		counts := h.remote.BreakerCounts()
		resp["remote_store"] = gin.H{
			"state":                h.remote.BreakerState().String(),
			"requests":             counts.Requests,
			"consecutive_failures": counts.ConsecutiveFailures,
		}
	}
	c.JSON(http.StatusOK, resp)
}
