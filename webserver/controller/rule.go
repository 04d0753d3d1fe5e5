package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/glazed-darnut/VerifyBot/common"
	"github.com/glazed-darnut/VerifyBot/model"
	"github.com/glazed-darnut/VerifyBot/service"
)

// PutRule installs or replaces the verification rule of a role. Rules are
// authored by guild admins out of band; this is their write path.
func PutRule(ctx *gin.Context) {
	var rule model.VerificationRule
	if err := ctx.ShouldBindJSON(&rule); err != nil {
		common.ResponseBadRequestError(ctx)
		return
	}
	if rule.Pattern == "" {
		common.ResponseBadRequestError(ctx)
		return
	}
	if _, err := rule.Compile("probe"); err != nil {
		common.ResponseError(ctx, err)
		return
	}
	if err := service.GetStore().SetRule(ctx.Param("GuildId"), ctx.Param("Role"), rule); err != nil {
		common.ResponseError(ctx, err)
		return
	}
	common.ResponseSuccess(ctx, nil)
}

type helpBody struct {
	Text string
}

func PutHelpMessage(ctx *gin.Context) {
	var body helpBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		common.ResponseBadRequestError(ctx)
		return
	}
	if err := service.GetStore().SetHelpMessage(ctx.Param("GuildId"), ctx.Param("Key"), body.Text); err != nil {
		common.ResponseError(ctx, err)
		return
	}
	common.ResponseSuccess(ctx, nil)
}
