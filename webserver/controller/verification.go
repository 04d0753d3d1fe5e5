package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/glazed-darnut/VerifyBot/common"
	"github.com/glazed-darnut/VerifyBot/service"
)

func GetVerifications(ctx *gin.Context) {
	statuses, err := service.GetStore().Statuses(ctx.Param("GuildId"))
	if err != nil {
		common.ResponseError(ctx, err)
		return
	}
	common.ResponseSuccess(ctx, gin.H{
		"Verifications": statuses,
	})
}
