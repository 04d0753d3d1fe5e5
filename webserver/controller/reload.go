package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/glazed-darnut/VerifyBot/common"
	"github.com/glazed-darnut/VerifyBot/service"
)

func Reload(ctx *gin.Context) {
	if err := service.GetStore().Reload(); err != nil {
		common.ResponseError(ctx, err)
		return
	}
	common.ResponseSuccess(ctx, nil)
}
