package api

import (
	"fmt"
	"net/http"

	"ContestSync/internal/model"
	"ContestSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SyncHandler struct {
	scheduler *service.Scheduler
	logger    *logrus.Logger
}

func NewSyncHandler(scheduler *service.Scheduler, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// SyncPlatformHandler 手动触发单平台抓取
// @Summary 同步平台比赛数据
// @Param platform path string true "平台名称（codeforces/leetcode/codechef/atcoder）"
// @Success 200 {object} service.FetchOutcome
// @Failure 500 {object} map[string]string
// @Router /sync/platform/{platform} [post]
func (h *SyncHandler) SyncPlatformHandler(c *gin.Context) {
	platformName := c.Param("platform")
	if !model.IsValidPlatform(platformName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("未支持的平台: %s", platformName)})
		return
	}

	outcome, err := h.scheduler.TriggerPlatform(c.Request.Context(), model.PlatformType(platformName))
	if err != nil {
		h.logger.Errorf("同步%s失败: %v", platformName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// SyncAllHandler 手动触发全量抓取；已有全量周期在途时返回202并跳过
// @Router /sync/all [post]
func (h *SyncHandler) SyncAllHandler(c *gin.Context) {
	outcomes := h.scheduler.TriggerAll(c.Request.Context())
	if outcomes == nil {
		c.JSON(http.StatusAccepted, gin.H{"message": "已有全量抓取周期在途，本次触发跳过"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}
