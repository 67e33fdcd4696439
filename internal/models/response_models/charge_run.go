package response_models

// ChargeResult records the outcome of one subscription in a scheduler run.
type ChargeResult struct {
	SubscriptionID string `json:"subscriptionId"`
	ChargeID       string `json:"chargeId,omitempty"`
	Status         string `json:"status"` // "created" | "skipped" | "failed"
	Error          string `json:"error,omitempty"`
}

type ChargeRunSummary struct {
	Created int `json:"created"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type ChargeRunResponse struct {
	Summary ChargeRunSummary `json:"summary"`
	Results []ChargeResult   `json:"results"`
}
