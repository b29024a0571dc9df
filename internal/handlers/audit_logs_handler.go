package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opencare/care-scheduler/internal/audit"
	"github.com/opencare/care-scheduler/internal/httperr"
	"github.com/opencare/care-scheduler/internal/middleware"
)

type AuditLogsHandler struct {
	service  *audit.Service
	exporter *audit.Exporter
}

func NewAuditLogsHandler(service *audit.Service, exporter *audit.Exporter) *AuditLogsHandler {
	return &AuditLogsHandler{service: service, exporter: exporter}
}

func auditFilterFromQuery(c *gin.Context) audit.Filter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	filter := audit.Filter{
		TargetType: c.Query("target_type"),
		TargetID:   c.Query("target_id"),
		Action:     c.Query("action"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.To = t.Add(24 * time.Hour)
		}
	}

	return filter
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	entries, err := h.service.Query(
		c.Request.Context(),
		middleware.Principal(c),
		auditFilterFromQuery(c),
		requestMeta(c),
	)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(200, gin.H{
		"total":   len(entries),
		"entries": entries,
	})
}

func (h *AuditLogsHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		httperr.Write(c, 503, "export_unavailable", "Audit export is not configured.")
		return
	}

	key, err := h.exporter.Export(
		c.Request.Context(),
		middleware.Principal(c),
		auditFilterFromQuery(c),
		requestMeta(c),
	)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(200, gin.H{"object_key": key})
}
