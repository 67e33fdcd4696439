package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minsponsor/internal/models/db_models"
	"minsponsor/internal/providers/vipps"
	"minsponsor/internal/repositories"
	"minsponsor/pkg/utils"
)

// SiteConfig carries the public base URL used for sponsor-facing redirects.
type SiteConfig struct {
	BaseURL string
}

type VippsCallbackServiceInterface interface {
	// Resolve polls the agreement status after the sponsor is redirected back
	// from the Vipps app and returns where to send them next. There is no
	// webhook guarantee at this point; polling is the source of truth.
	Resolve(ctx context.Context, subscriptionID uuid.UUID) (redirectURL string, err error)
}

type VippsCallbackService struct {
	subRepo repositories.ISubscriptionRepository
	txnRepo repositories.ITransactionRepository
	vipps   vipps.Client
	cfg     SiteConfig
}

func NewVippsCallbackService(
	subRepo repositories.ISubscriptionRepository,
	txnRepo repositories.ITransactionRepository,
	vippsClient vipps.Client,
	cfg SiteConfig,
) VippsCallbackServiceInterface {
	return &VippsCallbackService{
		subRepo: subRepo,
		txnRepo: txnRepo,
		vipps:   vippsClient,
		cfg:     cfg,
	}
}

func (s *VippsCallbackService) Resolve(ctx context.Context, subscriptionID uuid.UUID) (string, error) {
	sub, err := s.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return "", utils.ErrDatabaseError
	}
	if sub == nil || sub.ProviderSubscriptionID == nil {
		return "", utils.ErrSubscriptionNotFound
	}
	org := sub.Organization
	if org.VippsMSN == nil {
		return "", utils.ErrSubscriptionNotFound
	}

	pendingURL := fmt.Sprintf("%s/checkout/vipps/pending?sub=%s", s.cfg.BaseURL, sub.ID)

	agreement, err := s.vipps.GetAgreement(ctx, *org.VippsMSN, *sub.ProviderSubscriptionID)
	if err != nil {
		// Cannot tell yet; send the sponsor to the interstitial page, which
		// offers a manual re-check of this same resolver.
		log.Printf("Error checking Vipps agreement status: %v", err)
		return pendingURL, nil
	}

	switch agreement.Status {
	case vipps.AgreementActive:
		if err := s.subRepo.ActivateByID(ctx, sub.ID); err != nil {
			return "", utils.ErrDatabaseError
		}
		s.createFirstCharge(ctx, sub, *org.VippsMSN)
		return fmt.Sprintf("%s/bekreftelse?sub=%s&provider=vipps", s.cfg.BaseURL, sub.ID), nil

	case vipps.AgreementExpired, vipps.AgreementStopped:
		if err := s.subRepo.ExpireByID(ctx, sub.ID); err != nil {
			return "", utils.ErrDatabaseError
		}
		return fmt.Sprintf("%s/stott/%s?error=vipps_rejected", s.cfg.BaseURL, org.Slug), nil

	default:
		// Still pending approval in the Vipps app.
		return pendingURL, nil
	}
}

// createFirstCharge requests the initial charge right after activation, due
// three days out to clear the provider's two-day minimum. Failures are logged
// only: the confirmation page must never block on this, and the daily
// scheduler picks the cycle up since no transaction was recorded.
func (s *VippsCallbackService) createFirstCharge(ctx context.Context, sub *db_models.Subscription, msn string) {
	dueDate := utils.NowOslo().AddDate(0, 0, 3)

	charge, err := s.vipps.CreateCharge(ctx, msn, *sub.ProviderSubscriptionID, vipps.ChargeParams{
		AmountMinor: sub.AmountMinor,
		Description: fmt.Sprintf("Første betaling - %s %d", utils.NorwegianMonth(dueDate), dueDate.Year()),
		DueDate:     utils.DateString(dueDate),
		RetryDays:   5,
	})
	if err != nil {
		log.Printf("Failed to create first Vipps charge for %s: %v", sub.ID, err)
		return
	}

	chargeID := charge.ChargeID
	txn := &db_models.Transaction{
		SubscriptionID:   sub.ID,
		Provider:         db_models.ProviderVipps,
		ProviderChargeID: &chargeID,
		OrganizationID:   sub.OrganizationID,
		GroupID:          sub.GroupID,
		IndividualID:     sub.IndividualID,
		AmountMinor:      sub.AmountMinor,
		PlatformFeeMinor: utils.PlatformFee(sub.AmountMinor),
		Status:           db_models.TxnStatusPending,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Printf("Failed to record pending transaction for charge %s: %v", chargeID, err)
	}
}
