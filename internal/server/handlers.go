package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amosWeiskopf/linkharvest/internal/models"
	"github.com/amosWeiskopf/linkharvest/internal/storage"
	"github.com/amosWeiskopf/linkharvest/pkg/exporter"
	"github.com/amosWeiskopf/linkharvest/pkg/scraper"
)

type handlers struct {
	runner Runner
	runs   RunReader
	logger *slog.Logger
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// scrape runs a request synchronously. With ?format= the export body is
// returned instead of the JSON outcome.
func (h *handlers) scrape(c *gin.Context) {
	format, ok := formatParam(c)
	if !ok {
		return
	}

	var req models.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		if scraper.IsInputError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("scrape failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if format == "" {
		c.JSON(http.StatusOK, outcome)
		return
	}
	h.render(c, outcome.Results, format)
}

func (h *handlers) listRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run storage is not configured"})
		return
	}
	runs, err := h.runs.Runs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *handlers) runLinks(c *gin.Context) {
	format, ok := formatParam(c)
	if !ok {
		return
	}
	if format == "" {
		format = exporter.FormatJSON
	}
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run storage is not configured"})
		return
	}

	links, err := h.runs.Links(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.render(c, links, format)
}

func (h *handlers) render(c *gin.Context, results []string, format exporter.Format) {
	body, err := exporter.New("Links").Render(results, format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, format.ContentType(), []byte(body))
}

// formatParam reads ?format=. An empty value means none was requested.
func formatParam(c *gin.Context) (exporter.Format, bool) {
	raw := c.Query("format")
	if raw == "" {
		return "", true
	}
	f, err := exporter.ParseFormat(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return f, true
}
