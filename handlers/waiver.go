package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gabedeluna/kambo-klarity/utils"
)

// ValidateWaiverToken lets the waiver mini-app check the signed link token
// before presenting the form.
func ValidateWaiverToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing token", "")
		return
	}

	telegramID, sessionType, err := utils.ParseWaiverToken(token)
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "invalid waiver token", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"telegramId":  telegramID,
		"sessionType": sessionType,
	})
}
