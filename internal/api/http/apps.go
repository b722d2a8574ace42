package http

import (
	"net/http"

	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"github.com/gin-gonic/gin"
)

// ListApps returns installed apps, optionally filtered by ?kind=
func (h *Handlers) ListApps(c *gin.Context) {
	var kind types.Kind
	if raw := c.Query("kind"); raw != "" {
		parsed, err := types.ParseKind(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		kind = parsed
	}

	apps := h.apps.ListInstalled(kind)
	c.JSON(http.StatusOK, gin.H{
		"apps":  apps,
		"count": len(apps),
	})
}

// ManagedApps returns installed web apps with their run state
func (h *Handlers) ManagedApps(c *gin.Context) {
	apps := h.apps.ManagedWebApps(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"apps":  apps,
		"count": len(apps),
	})
}

// StartApp launches an installed app
func (h *Handlers) StartApp(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	rec, err := h.apps.Start(c.Request.Context(), c.Param("name"), kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"process": rec,
	})
}

// DeleteApp removes an installed app. Removing an absent app succeeds.
func (h *Handlers) DeleteApp(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	if err := h.apps.Delete(c.Param("name"), kind); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AvailablePackages lists store packages that are not yet installed
func (h *Handlers) AvailablePackages(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	packages := h.apps.Available(c.Request.Context(), kind)
	c.JSON(http.StatusOK, gin.H{
		"packages": packages,
		"count":    len(packages),
	})
}

// InstallPackage downloads and unpacks a package file
func (h *Handlers) InstallPackage(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	report, err := h.apps.Install(c.Request.Context(), c.Param("file"), kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}
