package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

// @Summary 健康检查
// @Router /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
