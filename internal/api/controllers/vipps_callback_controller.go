package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"minsponsor/internal/services"
	"minsponsor/pkg/utils"
)

type VippsCallbackController struct {
	callbackService services.VippsCallbackServiceInterface
	cfg             services.SiteConfig
}

func NewVippsCallbackController(callbackService services.VippsCallbackServiceInterface, cfg services.SiteConfig) *VippsCallbackController {
	return &VippsCallbackController{callbackService: callbackService, cfg: cfg}
}

// Callback lands the sponsor after the Vipps app approval flow. Every outcome
// is a redirect; errors send the sponsor somewhere sensible rather than
// rendering JSON at them.
func (vc *VippsCallbackController) Callback(c *gin.Context) {
	subParam := c.Query("sub")
	if subParam == "" {
		c.Redirect(http.StatusFound, vc.cfg.BaseURL+"/?error=missing_subscription")
		return
	}

	subID, err := uuid.Parse(subParam)
	if err != nil {
		c.Redirect(http.StatusFound, vc.cfg.BaseURL+"/?error=subscription_not_found")
		return
	}

	redirectURL, err := vc.callbackService.Resolve(c.Request.Context(), subID)
	if err != nil {
		if errors.Is(err, utils.ErrSubscriptionNotFound) {
			c.Redirect(http.StatusFound, vc.cfg.BaseURL+"/?error=subscription_not_found")
			return
		}
		c.Redirect(http.StatusFound, vc.cfg.BaseURL+"/?error=internal")
		return
	}

	c.Redirect(http.StatusFound, redirectURL)
}
