package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gabedeluna/kambo-klarity/utils"
)

// Health reports the latest store health snapshot. A degraded store returns
// 503 so the hosting platform stops routing webhook traffic here.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy() && !status.CheckedAt.IsZero() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
