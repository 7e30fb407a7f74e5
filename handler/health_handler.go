package handler

import (
	"time"

	"main/utils"

	"github.com/gin-gonic/gin"
)

var serverStartTime = time.Now()

func HealthHandler(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(serverStartTime).Seconds()),
		"cpu_percent":    utils.GetCPUUsage(),
		"memory_percent": utils.GetMemoryUsage(),
	})
}
