package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"minsponsor/internal/models/db_models"
	"minsponsor/internal/models/request_models"
	"minsponsor/internal/models/response_models"
	"minsponsor/internal/providers/stripe"
	"minsponsor/internal/providers/vipps"
	"minsponsor/internal/repositories"
	"minsponsor/pkg/utils"
)

// Donation bounds in øre: 10 NOK to 100 000 NOK.
const (
	minAmountMinor = 1_000
	maxAmountMinor = 10_000_000
)

type CheckoutServiceInterface interface {
	Checkout(ctx context.Context, req request_models.CheckoutRequest) (*response_models.CheckoutResponse, error)
}

type CheckoutService struct {
	orgRepo  repositories.IOrganizationRepository
	subRepo  repositories.ISubscriptionRepository
	stripeGW stripe.Gateway
	vipps    vipps.Client
	cfg      SiteConfig
}

func NewCheckoutService(
	orgRepo repositories.IOrganizationRepository,
	subRepo repositories.ISubscriptionRepository,
	stripeGW stripe.Gateway,
	vippsClient vipps.Client,
	cfg SiteConfig,
) CheckoutServiceInterface {
	return &CheckoutService{
		orgRepo:  orgRepo,
		subRepo:  subRepo,
		stripeGW: stripeGW,
		vipps:    vippsClient,
		cfg:      cfg,
	}
}

// Checkout routes a donation request to the chosen provider. The Stripe path
// delegates entirely to hosted checkout and writes nothing locally; the Vipps
// path writes a pending subscription first and compensates by deleting it if
// the agreement request fails.
func (s *CheckoutService) Checkout(ctx context.Context, req request_models.CheckoutRequest) (*response_models.CheckoutResponse, error) {
	if req.Amount < minAmountMinor || req.Amount > maxAmountMinor {
		return nil, utils.ErrInvalidAmount
	}

	orgID, err := uuid.Parse(req.Recipient.OrganizationID)
	if err != nil {
		return nil, utils.ErrInvalidRecipient
	}

	org, err := s.orgRepo.GetActiveByID(ctx, orgID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if org == nil {
		return nil, utils.ErrOrgNotFound
	}
	if !org.CanAcceptPayments() {
		return nil, utils.ErrOrgNotAcceptingPayments
	}

	groupID, individualID, err := s.resolveRecipient(ctx, org.ID, req.Recipient)
	if err != nil {
		return nil, err
	}

	if req.PaymentMethod == string(db_models.ProviderVipps) {
		return s.vippsCheckout(ctx, req, org, groupID, individualID)
	}
	return s.stripeCheckout(ctx, req, org, groupID, individualID)
}

// resolveRecipient validates the recipient reference against the org: a group
// must belong to the org, an individual must belong to the org, and a group
// may accompany an individual only if it is the individual's own group.
func (s *CheckoutService) resolveRecipient(ctx context.Context, orgID uuid.UUID, r request_models.CheckoutRecipient) (*uuid.UUID, *uuid.UUID, error) {
	switch r.Type {
	case "organization":
		return nil, nil, nil

	case "group":
		groupID, err := uuid.Parse(r.GroupID)
		if err != nil {
			return nil, nil, utils.ErrInvalidRecipient
		}
		group, err := s.orgRepo.GetGroup(ctx, groupID)
		if err != nil {
			return nil, nil, utils.ErrDatabaseError
		}
		if group == nil || group.OrganizationID != orgID {
			return nil, nil, utils.ErrInvalidRecipient
		}
		return &groupID, nil, nil

	case "individual":
		individualID, err := uuid.Parse(r.IndividualID)
		if err != nil {
			return nil, nil, utils.ErrInvalidRecipient
		}
		ind, err := s.orgRepo.GetIndividual(ctx, individualID)
		if err != nil {
			return nil, nil, utils.ErrDatabaseError
		}
		if ind == nil || ind.OrganizationID != orgID {
			return nil, nil, utils.ErrInvalidRecipient
		}
		if r.GroupID != "" {
			groupID, err := uuid.Parse(r.GroupID)
			if err != nil {
				return nil, nil, utils.ErrInvalidRecipient
			}
			if ind.GroupID == nil || *ind.GroupID != groupID {
				return nil, nil, utils.ErrInvalidRecipient
			}
			return &groupID, &individualID, nil
		}
		return nil, &individualID, nil

	default:
		return nil, nil, utils.ErrInvalidRecipient
	}
}

func (s *CheckoutService) vippsCheckout(
	ctx context.Context,
	req request_models.CheckoutRequest,
	org *db_models.Organization,
	groupID, individualID *uuid.UUID,
) (*response_models.CheckoutResponse, error) {
	if !org.VippsEnabled || org.VippsMSN == nil {
		return nil, utils.ErrOrgNotAcceptingPayments
	}
	// Vipps recurring agreements have no one-time mode.
	if req.Interval == string(db_models.IntervalOneTime) {
		return nil, utils.ErrUnsupportedInterval
	}
	if req.SponsorPhone == "" {
		return nil, utils.ErrMissingPhone
	}

	phone := vipps.FormatPhone(req.SponsorPhone)

	sub := &db_models.Subscription{
		Provider:       db_models.ProviderVipps,
		SponsorEmail:   req.SponsorEmail,
		SponsorName:    optionalString(req.SponsorName),
		SponsorPhone:   &phone,
		OrganizationID: org.ID,
		GroupID:        groupID,
		IndividualID:   individualID,
		AmountMinor:    req.Amount,
		Interval:       db_models.IntervalMonthly,
		Status:         db_models.SubStatusPending,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		log.Printf("Failed to create pending subscription: %v", err)
		return nil, utils.ErrDatabaseError
	}

	// Compensating delete: if the agreement never came back, no pending row
	// may be left behind. The delete is idempotent, so a racing retry of the
	// whole request is harmless.
	confirmed := false
	defer func() {
		if !confirmed {
			if delErr := s.subRepo.Delete(context.WithoutCancel(ctx), sub.ID); delErr != nil {
				log.Printf("Failed to delete orphaned pending subscription %s: %v", sub.ID, delErr)
			}
		}
	}()

	agreement, err := s.vipps.CreateAgreement(ctx, *org.VippsMSN, vipps.AgreementParams{
		PhoneNumber:          phone,
		AmountMinor:          req.Amount,
		ProductName:          fmt.Sprintf("Støtte til %s", org.Name),
		MerchantRedirectURL:  fmt.Sprintf("%s/checkout/vipps/callback?sub=%s", s.cfg.BaseURL, sub.ID),
		MerchantAgreementURL: s.cfg.BaseURL + "/mine-abonnementer",
	})
	if err != nil {
		log.Printf("Vipps agreement creation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", utils.ErrProviderUnavailable, err)
	}

	if err := s.subRepo.SetProviderSubscriptionID(ctx, sub.ID, agreement.AgreementID); err != nil {
		log.Printf("Failed to store agreement id on subscription %s: %v", sub.ID, err)
		return nil, utils.ErrDatabaseError
	}
	confirmed = true

	return &response_models.CheckoutResponse{URL: agreement.VippsConfirmationURL}, nil
}

func (s *CheckoutService) stripeCheckout(
	ctx context.Context,
	req request_models.CheckoutRequest,
	org *db_models.Organization,
	groupID, individualID *uuid.UUID,
) (*response_models.CheckoutResponse, error) {
	if !org.StripeChargesEnabled || org.StripeAccountID == nil {
		return nil, utils.ErrOrgNotAcceptingPayments
	}

	metadata := map[string]string{
		"organization_id": org.ID.String(),
		"group_id":        uuidOrEmpty(groupID),
		"individual_id":   uuidOrEmpty(individualID),
		"sponsor_name":    req.SponsorName,
		"sponsor_email":   req.SponsorEmail,
	}

	url, err := s.stripeGW.CreateCheckoutSession(ctx, stripe.SessionParams{
		OrgName:           org.Name,
		OrgSlug:           org.Slug,
		ConnectedAccount:  *org.StripeAccountID,
		AmountMinor:       req.Amount,
		Monthly:           req.Interval == string(db_models.IntervalMonthly),
		SponsorEmail:      req.SponsorEmail,
		ApplicationFeePct: utils.PlatformFeePercent,
		Metadata:          metadata,
	})
	if err != nil {
		log.Printf("Stripe checkout session failed: %v", err)
		return nil, fmt.Errorf("%w: %v", utils.ErrProviderUnavailable, err)
	}

	return &response_models.CheckoutResponse{URL: url}, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func uuidOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
