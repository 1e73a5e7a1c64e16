package middleware

import (
	"net/http"

	"dz-fellah/models"
	"dz-fellah/utils"

	"github.com/gin-gonic/gin"
)

const CronSecretHeader = "X-Cron-Secret"

// CronSecret checks X-Cron-Secret against an argon2 encoded hash. With no
// hash configured the endpoint is closed.
func CronSecret(encodedHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader(CronSecretHeader)
		if encodedHash == "" || secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Success: false,
				Message: "Cron secret required",
			})
			return
		}

		ok, err := utils.VerifySecret(encodedHash, secret)
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Success: false,
				Message: "Invalid cron secret",
			})
			return
		}
		c.Next()
	}
}
