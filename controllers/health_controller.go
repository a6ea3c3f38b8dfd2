package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Ping 健康检查
// @Summary      Ping
// @Description  Liveness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /ping [get]
func Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "pong",
		"data": gin.H{
			"time": time.Now().Format(time.RFC3339),
		},
	})
}
