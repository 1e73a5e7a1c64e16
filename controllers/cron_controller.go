package controllers

import (
	"net/http"

	"dz-fellah/models"
	"dz-fellah/services"

	"github.com/gin-gonic/gin"
)

type CronController struct {
	sweep *services.AntiGaspiService
}

func NewCronController(sweep *services.AntiGaspiService) *CronController {
	return &CronController{sweep: sweep}
}

// @Summary Run anti-gaspi sweep
// @Description Flag and discount aging perishable products. Called by the scheduler.
// @Tags Cron
// @Param X-Cron-Secret header string true "Scheduler secret"
// @Produce json
// @Success 200 {object} models.Response{data=models.SweepResult}
// @Router /cron/anti-gaspi [post]
func (ctrl *CronController) AntiGaspi(c *gin.Context) {
	n, err := ctrl.sweep.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Anti-gaspi sweep completed",
		Data:    models.SweepResult{ProductsUpdated: n},
	})
}
