package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/FrankKleiton/vote-app/database"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SystemInfo contains basic system metrics and information
type SystemInfo struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	Uptime        string    `json:"uptime"`
	StartTime     time.Time `json:"start_time"`
	CurrentTime   time.Time `json:"current_time"`
	GoVersion     string    `json:"go_version"`
	NumGoroutine  int       `json:"num_goroutine"`
	NumCPU        int       `json:"num_cpu"`
	DBStatus      string    `json:"db_status"`
	CacheStatus   string    `json:"cache_status"`
	Subscriptions int       `json:"subscriptions"`
}

// Pinger is the part of a Redis client the status check uses.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// ConnectionCounter reports the number of open subscription connections.
type ConnectionCounter interface {
	Count() int
}

var version = "0.1.0" // overridden at build time with -ldflags

const pingTimeout = 2 * time.Second

// HealthHandler serves the liveness and status endpoints.
type HealthHandler struct {
	db        *gorm.DB
	cache     Pinger
	conns     ConnectionCounter
	startTime time.Time
}

// NewHealthHandler creates a health handler. cache may be nil when the
// cache is disabled.
func NewHealthHandler(db *gorm.DB, cache Pinger, conns ConnectionCounter) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		conns:     conns,
		startTime: time.Now(),
	}
}

// HealthCheck 提供基本健康检查端点
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// SystemStatus 返回运行时间、运行时指标和后端连通性，数据库不可达时返回503
func (h *HealthHandler) SystemStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	dbStatus := "ok"
	if err := database.Ping(ctx, h.db); err != nil {
		dbStatus = "error"
		status, code = "degraded", http.StatusServiceUnavailable
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx).Err(); err != nil {
			cacheStatus = "error"
		}
	}

	subscriptions := 0
	if h.conns != nil {
		subscriptions = h.conns.Count()
	}

	c.JSON(code, SystemInfo{
		Status:        status,
		Version:       version,
		Uptime:        time.Since(h.startTime).String(),
		StartTime:     h.startTime,
		CurrentTime:   time.Now(),
		GoVersion:     runtime.Version(),
		NumGoroutine:  runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		DBStatus:      dbStatus,
		CacheStatus:   cacheStatus,
		Subscriptions: subscriptions,
	})
}
