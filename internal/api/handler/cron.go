package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

// CronHandler 外部调度器触发的批处理接口
type CronHandler struct {
	cron *service.CronService
}

func NewCronHandler(cron *service.CronService) *CronHandler {
	return &CronHandler{cron: cron}
}

// Run POST /api/v1/cron/:job
func (h *CronHandler) Run(c *gin.Context) {
	result, err := h.cron.Run(c.Request.Context(), c.Param("job"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}
