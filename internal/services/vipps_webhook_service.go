package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"minsponsor/internal/models/db_models"
	"minsponsor/internal/models/request_models"
	"minsponsor/internal/repositories"
	"minsponsor/pkg/utils"
)

// Vipps recurring webhook event names.
const (
	vippsAgreementActivated = "recurring.agreement-activated.v1"
	vippsAgreementStopped   = "recurring.agreement-stopped.v1"
	vippsAgreementExpired   = "recurring.agreement-expired.v1"
	vippsChargeCaptured     = "recurring.charge-captured.v1"
	vippsChargeFailed       = "recurring.charge-failed.v1"
	vippsChargeCancelled    = "recurring.charge-cancelled.v1"
)

type VippsWebhookServiceInterface interface {
	HandleEvent(ctx context.Context, event request_models.VippsWebhookEvent) (duplicate bool, err error)
}

type VippsWebhookService struct {
	subRepo       repositories.ISubscriptionRepository
	txnRepo       repositories.ITransactionRepository
	processedRepo repositories.IProcessedEventRepository
}

func NewVippsWebhookService(
	subRepo repositories.ISubscriptionRepository,
	txnRepo repositories.ITransactionRepository,
	processedRepo repositories.IProcessedEventRepository,
) VippsWebhookServiceInterface {
	return &VippsWebhookService{
		subRepo:       subRepo,
		txnRepo:       txnRepo,
		processedRepo: processedRepo,
	}
}

// SynthesizeEventID builds a deterministic idempotency key for a payload that
// carries no native event id, so a redelivery of the same event maps to the
// same ledger row. If the provider ever mutates the timestamp on redelivery
// the dedup falls through to the charge-id / agreement-id guards below.
func SynthesizeEventID(event request_models.VippsWebhookEvent) string {
	id := event.AgreementID
	if id == "" {
		id = event.ChargeID
	}
	ts := event.Timestamp
	if ts == "" {
		ts = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	return fmt.Sprintf("%s-%s-%s", event.Name, id, ts)
}

func (s *VippsWebhookService) HandleEvent(ctx context.Context, event request_models.VippsWebhookEvent) (bool, error) {
	duplicate, err := s.processedRepo.MarkProcessed(ctx, db_models.ProviderVipps, SynthesizeEventID(event))
	if err != nil {
		return false, err
	}
	if duplicate {
		return true, nil
	}

	switch event.Name {
	case vippsAgreementActivated:
		err = s.handleAgreementActivated(ctx, event)
	case vippsAgreementStopped:
		err = s.handleAgreementStopped(ctx, event)
	case vippsAgreementExpired:
		err = s.handleAgreementExpired(ctx, event)
	case vippsChargeCaptured:
		err = s.handleChargeCaptured(ctx, event)
	case vippsChargeFailed:
		err = s.handleChargeFailed(ctx, event)
	case vippsChargeCancelled:
		err = s.handleChargeCancelled(ctx, event)
	default:
		log.Printf("Unhandled Vipps event: %s", event.Name)
	}
	return false, err
}

// handleAgreementActivated is usually redundant with the callback resolver's
// own activation; both converge on the same end state.
func (s *VippsWebhookService) handleAgreementActivated(ctx context.Context, event request_models.VippsWebhookEvent) error {
	if event.AgreementID == "" {
		log.Printf("Missing agreementId in %s event", event.Name)
		return nil
	}
	rows, err := s.subRepo.Activate(ctx, event.AgreementID)
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("agreement-activated for unknown agreement %s", event.AgreementID)
	}
	return nil
}

func (s *VippsWebhookService) handleAgreementStopped(ctx context.Context, event request_models.VippsWebhookEvent) error {
	if event.AgreementID == "" {
		log.Printf("Missing agreementId in %s event", event.Name)
		return nil
	}
	rows, err := s.subRepo.Cancel(ctx, event.AgreementID)
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("agreement-stopped for unknown agreement %s", event.AgreementID)
		return nil
	}
	log.Printf("Vipps agreement %s stopped by %s", event.AgreementID, orUnknown(event.Actor))
	return nil
}

func (s *VippsWebhookService) handleAgreementExpired(ctx context.Context, event request_models.VippsWebhookEvent) error {
	if event.AgreementID == "" {
		log.Printf("Missing agreementId in %s event", event.Name)
		return nil
	}
	rows, err := s.subRepo.Expire(ctx, event.AgreementID)
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("agreement-expired for unknown agreement %s", event.AgreementID)
	}
	return nil
}

// handleChargeCaptured covers both orders of arrival: if the scheduler (or
// callback resolver) already recorded a pending transaction it is promoted,
// otherwise the capture itself creates the succeeded transaction.
func (s *VippsWebhookService) handleChargeCaptured(ctx context.Context, event request_models.VippsWebhookEvent) error {
	if event.AgreementID == "" || event.ChargeID == "" {
		log.Printf("Missing agreementId or chargeId in %s event", event.Name)
		return nil
	}

	sub, err := s.subRepo.GetByProviderSubscriptionID(ctx, event.AgreementID)
	if err != nil {
		return err
	}
	if sub == nil {
		log.Printf("charge-captured for unknown agreement %s", event.AgreementID)
		return nil
	}

	existing, err := s.txnRepo.GetByChargeID(ctx, db_models.ProviderVipps, event.ChargeID)
	if err != nil {
		return err
	}
	if existing != nil {
		_, err := s.txnRepo.MarkSucceededByChargeID(ctx, db_models.ProviderVipps, event.ChargeID)
		return err
	}

	amount := event.Amount
	if amount == 0 {
		amount = sub.AmountMinor
	}

	now := utils.NowUnixSeconds()
	chargeID := event.ChargeID
	txn := &db_models.Transaction{
		SubscriptionID:   sub.ID,
		Provider:         db_models.ProviderVipps,
		ProviderChargeID: &chargeID,
		OrganizationID:   sub.OrganizationID,
		GroupID:          sub.GroupID,
		IndividualID:     sub.IndividualID,
		AmountMinor:      amount,
		PlatformFeeMinor: utils.PlatformFee(amount),
		Status:           db_models.TxnStatusSucceeded,
		PaidAt:           &now,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			_, err := s.txnRepo.MarkSucceededByChargeID(ctx, db_models.ProviderVipps, event.ChargeID)
			return err
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *VippsWebhookService) handleChargeFailed(ctx context.Context, event request_models.VippsWebhookEvent) error {
	log.Printf("Vipps charge failed: %s for agreement %s - %s", event.ChargeID, event.AgreementID, event.FailureReason)

	if event.ChargeID == "" {
		return nil
	}
	if _, err := s.txnRepo.MarkFailedByChargeID(ctx, db_models.ProviderVipps, event.ChargeID); err != nil {
		return err
	}

	if event.AgreementID == "" {
		return nil
	}
	sub, err := s.subRepo.GetByProviderSubscriptionID(ctx, event.AgreementID)
	if err != nil {
		return err
	}
	if sub != nil {
		log.Printf("Should notify %s about failed Vipps payment for %s", sub.SponsorEmail, sub.Organization.Name)
	}
	return nil
}

func (s *VippsWebhookService) handleChargeCancelled(ctx context.Context, event request_models.VippsWebhookEvent) error {
	if event.ChargeID == "" {
		return nil
	}
	_, err := s.txnRepo.MarkFailedByChargeID(ctx, db_models.ProviderVipps, event.ChargeID)
	return err
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
