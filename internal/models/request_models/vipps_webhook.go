package request_models

// VippsWebhookEvent is the flat payload shape the Vipps recurring webhooks
// deliver. There is no native event id; one is synthesized downstream.
type VippsWebhookEvent struct {
	Name          string `json:"name"`
	AgreementID   string `json:"agreementId,omitempty"`
	ChargeID      string `json:"chargeId,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
	Actor         string `json:"actor,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}
