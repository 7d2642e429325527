package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/gabedeluna/kambo-klarity/handlers"
)

// RegisterRoutes wires the bot's HTTP surface.
func RegisterRoutes(r *gin.Engine, tg *handlers.TelegramHandler) {
	r.POST("/webhook/telegram", tg.Webhook)
	r.GET("/healthz", handlers.Health)

	api := r.Group("/api")
	{
		api.GET("/waiver/validate", handlers.ValidateWaiverToken)
	}
}
