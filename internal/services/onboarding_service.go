package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"minsponsor/internal/models/response_models"
	"minsponsor/internal/providers/stripe"
	"minsponsor/internal/repositories"
	"minsponsor/pkg/utils"
)

type OnboardingServiceInterface interface {
	// Start ensures the organization has a Stripe Connect account and returns
	// a fresh hosted-onboarding link. charges_enabled is flipped later by the
	// account.updated webhook, never here.
	Start(ctx context.Context, orgID uuid.UUID) (*response_models.OnboardingResponse, error)
}

type OnboardingService struct {
	orgRepo  repositories.IOrganizationRepository
	stripeGW stripe.Gateway
}

func NewOnboardingService(orgRepo repositories.IOrganizationRepository, stripeGW stripe.Gateway) OnboardingServiceInterface {
	return &OnboardingService{orgRepo: orgRepo, stripeGW: stripeGW}
}

func (s *OnboardingService) Start(ctx context.Context, orgID uuid.UUID) (*response_models.OnboardingResponse, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if org == nil {
		return nil, utils.ErrOrgNotFound
	}

	accountID := ""
	if org.StripeAccountID != nil {
		accountID = *org.StripeAccountID
	} else {
		accountID, err = s.stripeGW.CreateConnectAccount(ctx, org.ID.String(), org.ContactEmail)
		if err != nil {
			log.Printf("Stripe account creation failed for org %s: %v", org.ID, err)
			return nil, fmt.Errorf("%w: %v", utils.ErrProviderUnavailable, err)
		}
		if err := s.orgRepo.SetStripeAccount(ctx, org.ID, accountID); err != nil {
			return nil, utils.ErrDatabaseError
		}
	}

	link, err := s.stripeGW.CreateAccountLink(ctx, accountID, org.ID.String())
	if err != nil {
		log.Printf("Stripe account link failed for org %s: %v", org.ID, err)
		return nil, fmt.Errorf("%w: %v", utils.ErrProviderUnavailable, err)
	}

	return &response_models.OnboardingResponse{
		AccountID:     accountID,
		OnboardingURL: link,
	}, nil
}
