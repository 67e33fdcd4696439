package request_models

// CheckoutRecipient identifies what the sponsor supports: the organization
// itself, one of its groups, or an individual (optionally within a group).
type CheckoutRecipient struct {
	Type           string `json:"type" binding:"required,oneof=organization group individual"`
	OrganizationID string `json:"organizationId" binding:"required,uuid4"`
	GroupID        string `json:"groupId" binding:"omitempty,uuid4"`
	IndividualID   string `json:"individualId" binding:"omitempty,uuid4"`
}

type CheckoutRequest struct {
	PaymentMethod string            `json:"paymentMethod" binding:"required,oneof=stripe vipps"`
	Recipient     CheckoutRecipient `json:"recipient" binding:"required"`
	// Amount in øre. Min 10 NOK, max 100 000 NOK.
	Amount       int64  `json:"amount" binding:"required"`
	Interval     string `json:"interval" binding:"required,oneof=monthly one_time"`
	SponsorEmail string `json:"sponsorEmail" binding:"required,email"`
	SponsorName  string `json:"sponsorName"`
	SponsorPhone string `json:"sponsorPhone"`
}

type OnboardingRequest struct {
	OrganizationID string `json:"organizationId" binding:"required,uuid4"`
}
