package router

import (
	"github.com/gin-gonic/gin"
	"github.com/glazed-darnut/VerifyBot/config"
	"github.com/glazed-darnut/VerifyBot/webserver/controller"
)

func Run() error {
	engine := gin.New()
	engine.Use(gin.Recovery())
	api := engine.Group("/api")
	api.GET("/guilds/:GuildId/verifications", controller.GetVerifications)
	api.PUT("/guilds/:GuildId/rules/:Role", controller.PutRule)
	api.PUT("/guilds/:GuildId/help/:Key", controller.PutHelpMessage)
	api.POST("/reload", controller.Reload)
	return engine.Run(config.GetConfig().Address)
}
