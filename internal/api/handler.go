package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/service"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	items         *service.ItemService
	catalog       *service.CatalogService
	notifications *service.NotificationService
	reports       *service.ReportService
	db            Pinger
	opts          Options
	logger        *zap.Logger
}

// Options carries request defaults
type Options struct {
	DefaultUserID  int64
	DefaultPerPage int
}

// NewHandler creates a new HTTP handler. db may be nil, in which case /ready
// only reports the process as up.
func NewHandler(
	items *service.ItemService,
	catalog *service.CatalogService,
	notifications *service.NotificationService,
	reports *service.ReportService,
	db Pinger,
	opts Options,
) *Handler {
	if opts.DefaultPerPage <= 0 || opts.DefaultPerPage > maxPerPage {
		opts.DefaultPerPage = 20
	}
	return &Handler{
		items:         items,
		catalog:       catalog,
		notifications: notifications,
		reports:       reports,
		db:            db,
		opts:          opts,
		logger:        util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/items", h.listItems)
		v1.POST("/items", h.createItem)
		v1.GET("/items/:id", h.getItem)
		v1.PUT("/items/:id", h.updateItem)
		v1.DELETE("/items/:id", h.deleteItem)

		v1.GET("/categories", h.listCategories)
		v1.POST("/categories", h.createCategory)
		v1.GET("/categories/:id", h.getCategory)
		v1.PUT("/categories/:id", h.updateCategory)
		v1.DELETE("/categories/:id", h.deleteCategory)

		v1.GET("/suppliers", h.listSuppliers)
		v1.POST("/suppliers", h.createSupplier)
		v1.GET("/suppliers/:id", h.getSupplier)
		v1.PUT("/suppliers/:id", h.updateSupplier)
		v1.DELETE("/suppliers/:id", h.deleteSupplier)

		v1.GET("/notifications", h.listNotifications)
		v1.POST("/notifications", h.createNotification)
		v1.GET("/notifications/unread-count", h.unreadCount)
		v1.PUT("/notifications/mark-all-read", h.markAllRead)
		v1.POST("/notifications/generate", h.generateNotifications)
		v1.GET("/notifications/:id", h.getNotification)
		v1.PUT("/notifications/:id/read", h.markRead)
		v1.DELETE("/notifications/:id", h.deleteNotification)

		v1.GET("/reports", h.listReports)
		v1.POST("/reports", h.createReport)
		v1.POST("/reports/deduplicate", h.deduplicateReports)
		v1.GET("/reports/:id", h.getReport)
		v1.DELETE("/reports/:id", h.deleteReport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the database answers
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

const (
	maxPerPage = 100
	// keeps (page-1)*perPage inside a 32-bit OFFSET
	maxPage = math.MaxInt32 / maxPerPage
)

// Page is the envelope of a paginated listing
type Page struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"perPage"`
}

// pageRequest reads page/perPage. Both absent means the full list; page
// without perPage falls back to the configured default.
func (h *Handler) pageRequest(c *gin.Context) (models.PageRequest, bool) {
	pageStr, perPageStr := c.Query("page"), c.Query("perPage")
	if pageStr == "" && perPageStr == "" {
		return models.PageRequest{}, true
	}

	page, perPage := 1, h.opts.DefaultPerPage
	var err error
	if pageStr != "" {
		if page, err = strconv.Atoi(pageStr); err != nil || page < 1 || page > maxPage {
			badRequest(c, fmt.Sprintf("page must be an integer between 1 and %d", maxPage))
			return models.PageRequest{}, false
		}
	}
	if perPageStr != "" {
		if perPage, err = strconv.Atoi(perPageStr); err != nil || perPage < 1 || perPage > maxPerPage {
			badRequest(c, fmt.Sprintf("perPage must be an integer between 1 and %d", maxPerPage))
			return models.PageRequest{}, false
		}
	}
	return models.PageRequest{Page: page, PerPage: perPage}, true
}

func respondList(c *gin.Context, page models.PageRequest, data interface{}, total int) {
	if !page.Paginated() {
		c.JSON(http.StatusOK, data)
		return
	}
	c.JSON(http.StatusOK, Page{Data: data, Total: total, Page: page.Page, PerPage: page.PerPage})
}

// userID resolves the caller: userId query param, X-User-ID header, then the
// configured default user
func (h *Handler) userID(c *gin.Context) (int64, bool) {
	raw := c.Query("userId")
	if raw == "" {
		raw = c.GetHeader("X-User-ID")
	}
	if raw == "" {
		return h.opts.DefaultUserID, true
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "userId must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid ID")
		return 0, false
	}
	return id, true
}

func parseOptionalID(c *gin.Context, key string) (int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, key+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// respondError maps service and store errors onto status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, store.ErrInvalidReference):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
