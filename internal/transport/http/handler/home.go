package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yonima/shell/internal/domain"
)

type homeResponse struct {
	Message  string `json:"message"`
	Phone    string `json:"phone"`
	DeviceID string `json:"device_id"`
}

// GET /home
// Requires a session token; greets the signed-in number.
func Home(c *gin.Context) {
	phone := c.GetString("phone")
	c.JSON(http.StatusOK, homeResponse{
		Message:  "Bienvenue sur YONIMA",
		Phone:    domain.CountryCode + " " + phone,
		DeviceID: c.GetString("deviceID"),
	})
}
