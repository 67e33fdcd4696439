package response_models

// CheckoutResponse carries the provider-hosted URL the sponsor is sent to:
// Stripe's hosted checkout page or the Vipps agreement confirmation page.
type CheckoutResponse struct {
	URL string `json:"url"`
}

type OnboardingResponse struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
}

type WebhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}
