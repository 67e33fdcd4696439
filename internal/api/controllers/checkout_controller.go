package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"minsponsor/internal/models/request_models"
	"minsponsor/internal/services"
	"minsponsor/pkg/utils"
)

type CheckoutController struct {
	checkoutService services.CheckoutServiceInterface
}

func NewCheckoutController(checkoutService services.CheckoutServiceInterface) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// Checkout godoc
// @Summary Start a donation checkout
// @Description Routes the donation to Stripe hosted checkout or a Vipps recurring agreement and returns the provider URL to redirect the sponsor to
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body request_models.CheckoutRequest true "Checkout Request"
// @Success 200 {object} response_models.CheckoutResponse
// @Router /api/checkout [post]
func (cc *CheckoutController) Checkout(c *gin.Context) {
	var req request_models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := cc.checkoutService.Checkout(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
