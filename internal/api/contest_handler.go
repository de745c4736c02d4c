package api

import (
	"net/http"
	"time"

	"ContestSync/internal/interfaces"
	"ContestSync/internal/model"
	"ContestSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ContestHandler 提供给展示层的比赛查询接口
type ContestHandler struct {
	repo   interfaces.ContestRepository
	svc    *service.FetchService
	logger *logrus.Logger
}

// NewContestHandler 创建 ContestHandler
func NewContestHandler(repo interfaces.ContestRepository, svc *service.FetchService, logger *logrus.Logger) *ContestHandler {
	return &ContestHandler{
		repo:   repo,
		svc:    svc,
		logger: logger,
	}
}

// ListContests 比赛列表接口（落库数据+读取时派生status）
// GET /api/contests?platform=codeforces&active=true&from=2026-01-01T00:00:00Z
func (h *ContestHandler) ListContests(c *gin.Context) {
	filter := interfaces.ContestFilter{
		OnlyActive: c.DefaultQuery("active", "false") == "true",
	}
	if platform := c.Query("platform"); platform != "" {
		if !model.IsValidPlatform(platform) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform: " + platform})
			return
		}
		filter.Platform = model.PlatformType(platform)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromTime = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToTime = &t
		}
	}

	contests, err := h.repo.Find(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("ListContests failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	views := make([]model.ContestView, 0, len(contests))
	for _, contest := range contests {
		views = append(views, model.NewContestView(contest, now))
	}
	c.JSON(http.StatusOK, gin.H{"total": len(views), "contests": views})
}

// GetCached 非阻塞读取单平台最近一次结果（可能过期），绝不触发上游抓取
// GET /api/contests/cached/:platform
func (h *ContestHandler) GetCached(c *gin.Context) {
	platform := c.Param("platform")
	if !model.IsValidPlatform(platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform: " + platform})
		return
	}

	cached := h.svc.GetCached(model.PlatformType(platform))
	if cached == nil {
		c.JSON(http.StatusOK, gin.H{"platform": platform, "cached_at": nil, "contests": []model.ContestView{}})
		return
	}

	now := time.Now()
	views := make([]model.ContestView, 0, len(cached.Contests))
	for _, contest := range cached.Contests {
		views = append(views, model.NewContestView(contest, now))
	}
	c.JSON(http.StatusOK, gin.H{
		"platform":  platform,
		"source":    cached.Source,
		"cached_at": cached.CachedAt,
		"contests":  views,
	})
}

// GetHealth 各平台健康报告
// GET /health
func (h *ContestHandler) GetHealth(c *gin.Context) {
	report := h.svc.Health()
	status := http.StatusOK
	if service.AllCritical(report) {
		// 仍照常返回报告，仅以503示警
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"platforms": report})
}
