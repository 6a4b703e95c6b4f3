package api

import (
	"net/http"

	"inventory-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listReports(c *gin.Context) {
	page, ok := h.pageRequest(c)
	if !ok {
		return
	}

	reports, total, err := h.reports.List(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, page, reports, total)
}

func (h *Handler) getReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	report, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// createReport snapshots the current stock under the requested period label
func (h *Handler) createReport(c *gin.Context) {
	var req service.CreateReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.reports.Create(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) deleteReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.reports.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deduplicateReports(c *gin.Context) {
	removed, err := h.reports.Deduplicate(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
