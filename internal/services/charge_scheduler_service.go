package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"minsponsor/internal/models/db_models"
	"minsponsor/internal/models/response_models"
	"minsponsor/internal/providers/vipps"
	"minsponsor/internal/repositories"
	"minsponsor/pkg/utils"
)

const (
	// Charges fall due three days out; the Vipps recurring API requires at
	// least two.
	chargeLeadDays = 3
	// A subscription is not recharged until this many days after its last
	// succeeded charge. Approximates a monthly cadence while tolerating
	// provider-side settlement delay.
	minDaysBetweenCharges = 25
)

type ChargeSchedulerServiceInterface interface {
	// Run makes one sequential pass over the active Vipps subscriptions and
	// requests a charge for every one that is due. Triggered daily by an
	// external cron; safe to re-run within the same day.
	Run(ctx context.Context) (*response_models.ChargeRunResponse, error)
}

type ChargeSchedulerService struct {
	subRepo repositories.ISubscriptionRepository
	txnRepo repositories.ITransactionRepository
	vipps   vipps.Client
	now     func() time.Time
}

func NewChargeSchedulerService(
	subRepo repositories.ISubscriptionRepository,
	txnRepo repositories.ITransactionRepository,
	vippsClient vipps.Client,
) *ChargeSchedulerService {
	return &ChargeSchedulerService{
		subRepo: subRepo,
		txnRepo: txnRepo,
		vipps:   vippsClient,
		now:     utils.NowOslo,
	}
}

func (s *ChargeSchedulerService) Run(ctx context.Context) (*response_models.ChargeRunResponse, error) {
	subs, err := s.subRepo.ListActiveVippsMonthly(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	dueDate := s.now().AddDate(0, 0, chargeLeadDays)
	results := make([]response_models.ChargeResult, 0, len(subs))
	for _, sub := range subs {
		results = append(results, s.processSubscription(ctx, sub, dueDate))
	}

	resp := &response_models.ChargeRunResponse{Results: results}
	for _, r := range results {
		switch r.Status {
		case "created":
			resp.Summary.Created++
		case "failed":
			resp.Summary.Failed++
		default:
			resp.Summary.Skipped++
		}
	}

	log.Printf("Vipps charges run: %d created, %d failed, %d skipped",
		resp.Summary.Created, resp.Summary.Failed, resp.Summary.Skipped)
	return resp, nil
}

// processSubscription isolates one subscription's outcome: a failure here is
// recorded in the run report and never aborts the rest of the pass. No
// transaction is written on failure, so the next day's run reattempts the
// cycle naturally.
func (s *ChargeSchedulerService) processSubscription(ctx context.Context, sub db_models.Subscription, dueDate time.Time) response_models.ChargeResult {
	result := response_models.ChargeResult{SubscriptionID: sub.ID.String()}

	if sub.Organization.VippsMSN == nil || sub.ProviderSubscriptionID == nil {
		result.Status = "skipped"
		result.Error = "Missing MSN or agreement ID"
		return result
	}

	// One charge per calendar month of the due date, regardless of status:
	// a pending charge is already in flight, a failed one keeps this cycle
	// burned until the provider-side retry window closes.
	monthStart, monthEnd := utils.MonthBounds(dueDate)
	exists, err := s.txnRepo.ExistsForSubscriptionBetween(ctx, sub.ID, monthStart, monthEnd)
	if err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		return result
	}
	if exists {
		result.Status = "skipped"
		result.Error = "Charge already exists for this month"
		return result
	}

	lastAt, err := s.txnRepo.LastSucceededAt(ctx, sub.ID)
	if err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		return result
	}
	if lastAt != nil {
		days := int(s.now().Sub(time.Unix(*lastAt, 0)).Hours() / 24)
		if days < minDaysBetweenCharges {
			result.Status = "skipped"
			result.Error = fmt.Sprintf("Only %d days since last charge", days)
			return result
		}
	}

	charge, err := s.vipps.CreateCharge(ctx, *sub.Organization.VippsMSN, *sub.ProviderSubscriptionID, vipps.ChargeParams{
		AmountMinor: sub.AmountMinor,
		Description: fmt.Sprintf("Støtte %s", utils.NorwegianMonth(dueDate)),
		DueDate:     utils.DateString(dueDate),
		RetryDays:   5,
	})
	if err != nil {
		log.Printf("Failed to create charge for subscription %s: %v", sub.ID, err)
		result.Status = "failed"
		result.Error = err.Error()
		return result
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
		// The provider accepted the charge; its idempotency key protects the
		// next run from double-charging even though our record is missing.
		log.Printf("Failed to record pending transaction for charge %s: %v", chargeID, err)
	}

	result.Status = "created"
	result.ChargeID = chargeID
	return result
}
