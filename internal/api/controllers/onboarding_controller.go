package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"minsponsor/internal/models/request_models"
	"minsponsor/internal/services"
	"minsponsor/pkg/utils"
)

type OnboardingController struct {
	onboardingService services.OnboardingServiceInterface
}

func NewOnboardingController(onboardingService services.OnboardingServiceInterface) *OnboardingController {
	return &OnboardingController{onboardingService: onboardingService}
}

// Start godoc
// @Summary Start Stripe Connect onboarding for an organization
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.OnboardingRequest true "Onboarding Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /api/admin/onboarding [post]
func (oc *OnboardingController) Start(c *gin.Context) {
	var req request_models.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid organization id")
		return
	}

	resp, err := oc.onboardingService.Start(c.Request.Context(), orgID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Onboarding link created")
}

// StripeLink issues a fresh onboarding link for an organization that already
// has a connected account (or creates one if missing).
func (oc *OnboardingController) StripeLink(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid organization id")
		return
	}

	resp, err := oc.onboardingService.Start(c.Request.Context(), orgID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Onboarding link created")
}
