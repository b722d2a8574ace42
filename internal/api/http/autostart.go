package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListAutoStart returns the directive state of every installed app
func (h *Handlers) ListAutoStart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"apps": h.apps.AutoStartStatuses()})
}

// GetAutoStart reports whether one app launches at login
func (h *Handlers) GetAutoStart(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	name := c.Param("name")
	c.JSON(http.StatusOK, gin.H{
		"app":     name,
		"kind":    kind,
		"enabled": h.apps.IsAutoStartEnabled(name, kind),
	})
}

// EnableAutoStart adds a launch-at-login directive
func (h *Handlers) EnableAutoStart(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	if err := h.apps.EnableAutoStart(c.Param("name"), kind); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DisableAutoStart removes an app's launch-at-login directive
func (h *Handlers) DisableAutoStart(c *gin.Context) {
	if err := h.apps.DisableAutoStart(c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
