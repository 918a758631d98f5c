package handlers

import (
	"sql-research-assistant/internal/apis/dtos"
	"sql-research-assistant/internal/utils"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, statusCode uint32, err error) {
	c.JSON(int(statusCode), dtos.Response{
		Success: false,
		Error:   utils.ToStringPtr(err.Error()),
	})
}

func respondData(c *gin.Context, statusCode uint32, data interface{}) {
	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    data,
	})
}
