package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"minsponsor/internal/services"
)

type ChargesController struct {
	scheduler services.ChargeSchedulerServiceInterface
}

func NewChargesController(scheduler services.ChargeSchedulerServiceInterface) *ChargesController {
	return &ChargesController{scheduler: scheduler}
}

// Run is the daily cron entrypoint. Authentication is the bearer-secret
// middleware on the route group.
func (cc *ChargesController) Run(c *gin.Context) {
	resp, err := cc.scheduler.Run(c.Request.Context())
	if err != nil {
		log.Printf("Charge run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
