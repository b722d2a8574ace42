package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/taskdock/internal/domain/process"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListProcesses returns running apps, spawned ones first
func (h *Handlers) ListProcesses(c *gin.Context) {
	running := h.apps.ListRunning(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"processes": running,
		"count":     len(running),
	})
}

// StopProcess sends a termination signal. Stopping is best effort: the
// process is forgotten even if the signal could not be delivered.
func (h *Handlers) StopProcess(c *gin.Context) {
	pid, ok := pidParam(c)
	if !ok {
		return
	}

	err := h.apps.Stop(pid)
	if errors.Is(err, process.ErrInvalidPID) {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"success":   true,
		"pid":       pid,
		"signalled": err == nil,
	}
	if err != nil {
		h.log.Debug("Stop signal not delivered", zap.Int("pid", pid), zap.Error(err))
		resp["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessPort returns the port a running app listens on
func (h *Handlers) ProcessPort(c *gin.Context) {
	pid, ok := pidParam(c)
	if !ok {
		return
	}

	port, err := h.apps.ResolvePort(c.Request.Context(), pid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pid":     pid,
		"port":    port,
	})
}
