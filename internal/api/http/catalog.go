package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCatalog returns store metadata for a kind
func (h *Handlers) GetCatalog(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"apps": h.apps.Catalog(c.Request.Context(), kind)})
}

// DescribeApp returns store metadata for one app
func (h *Handlers) DescribeApp(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	name := c.Param("name")
	entry, found := h.apps.Describe(c.Request.Context(), name, kind)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "no catalog entry for " + name,
		})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListExtras returns the binary downloads on the extras root
func (h *Handlers) ListExtras(c *gin.Context) {
	extras := h.apps.Extras(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"extras": extras,
		"count":  len(extras),
	})
}
