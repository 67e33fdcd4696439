package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceIDFrom(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceIDFrom(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceIDFrom(c),
	})
}

// HandleServiceError maps service sentinels onto HTTP statuses. Validation
// and capability errors are user-facing 4xx; provider outages surface as 502
// so the caller knows retrying later may help.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOrgNotFound):
		RespondError(c, http.StatusNotFound, "Organization not found")
	case errors.Is(err, ErrOrgNotAcceptingPayments):
		RespondError(c, http.StatusBadRequest, "Payments are not enabled for this organization via the chosen provider")
	case errors.Is(err, ErrUnsupportedInterval):
		RespondError(c, http.StatusBadRequest, "Vipps only supports monthly payments; choose card for one-time donations")
	case errors.Is(err, ErrMissingPhone):
		RespondError(c, http.StatusBadRequest, "Phone number is required for Vipps")
	case errors.Is(err, ErrInvalidAmount):
		RespondError(c, http.StatusBadRequest, "Amount must be between 10 and 100 000 NOK")
	case errors.Is(err, ErrInvalidRecipient):
		RespondError(c, http.StatusBadRequest, "Invalid recipient")
	case errors.Is(err, ErrSubscriptionNotFound):
		RespondError(c, http.StatusNotFound, "Subscription not found")
	case errors.Is(err, ErrProviderUnavailable):
		log.Printf("Provider error: %v", err)
		RespondError(c, http.StatusBadGateway, "Payment provider error")
	case errors.Is(err, ErrDatabaseError):
		log.Printf("Database error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("Unknown error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
