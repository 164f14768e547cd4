package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Conceptual-Machines/stagepost-api/internal/logger"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const bytesPerMB = 1024 * 1024

// FeatureFlags reports which integrations are configured
type FeatureFlags struct {
	Twitter    bool   `json:"twitter"`
	GitHub     bool   `json:"github_login"`
	Langfuse   bool   `json:"langfuse"`
	CloudWatch bool   `json:"cloudwatch"`
	AuthMode   string `json:"auth_mode"`
}

// MetricsHandler serves a runtime and usage snapshot for operators
type MetricsHandler struct {
	db        *gorm.DB
	startTime time.Time
	version   string
	features  FeatureFlags
}

func NewMetricsHandler(db *gorm.DB, version string, features FeatureFlags) *MetricsHandler {
	return &MetricsHandler{
		db:        db,
		startTime: time.Now(),
		version:   version,
		features:  features,
	}
}

type MetricsResponse struct {
	Uptime    string        `json:"uptime"`
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version"`
	System    SystemMetrics `json:"system"`
	Database  DBMetrics     `json:"database"`
	Features  FeatureFlags  `json:"features"`
}

type SystemMetrics struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAllocMB   uint64 `json:"mem_alloc_mb"`
	NumGC        uint32 `json:"num_gc"`
}

// DBMetrics covers the connection pool and stored volume
type DBMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Chats           int64 `json:"chats"`
	Messages        int64 `json:"messages"`
}

// GetMetrics handles GET /api/metrics
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, MetricsResponse{
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		System: SystemMetrics{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAllocMB:   mem.Alloc / bytesPerMB,
			NumGC:        mem.NumGC,
		},
		Database: h.databaseMetrics(c),
		Features: h.features,
	})
}

// databaseMetrics is best effort; a failing query leaves its field at zero
func (h *MetricsHandler) databaseMetrics(c *gin.Context) DBMetrics {
	var out DBMetrics
	if sqlDB, err := h.db.DB(); err == nil {
		stats := sqlDB.Stats()
		out.OpenConnections = stats.OpenConnections
		out.InUse = stats.InUse
	}

	db := h.db.WithContext(c.Request.Context())
	if err := db.Model(&models.Chat{}).Count(&out.Chats).Error; err != nil {
		logger.Warn("Counting chats failed", logger.WithContext(c).With(logger.Fields{"error": err.Error()}))
	}
	if err := db.Model(&models.Message{}).Count(&out.Messages).Error; err != nil {
		logger.Warn("Counting messages failed", logger.WithContext(c).With(logger.Fields{"error": err.Error()}))
	}
	return out
}
