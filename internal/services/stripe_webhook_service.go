package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	stripesdk "github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"

	"minsponsor/internal/models/db_models"
	"minsponsor/internal/providers/stripe"
	"minsponsor/internal/repositories"
	"minsponsor/pkg/utils"
)

type StripeWebhookServiceInterface interface {
	// HandleEvent verifies, deduplicates and dispatches one raw webhook
	// delivery. duplicate is true when the event id was seen before.
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) (duplicate bool, err error)
}

type StripeWebhookService struct {
	gateway       stripe.Gateway
	orgRepo       repositories.IOrganizationRepository
	subRepo       repositories.ISubscriptionRepository
	txnRepo       repositories.ITransactionRepository
	processedRepo repositories.IProcessedEventRepository
}

func NewStripeWebhookService(
	gateway stripe.Gateway,
	orgRepo repositories.IOrganizationRepository,
	subRepo repositories.ISubscriptionRepository,
	txnRepo repositories.ITransactionRepository,
	processedRepo repositories.IProcessedEventRepository,
) StripeWebhookServiceInterface {
	return &StripeWebhookService{
		gateway:       gateway,
		orgRepo:       orgRepo,
		subRepo:       subRepo,
		txnRepo:       txnRepo,
		processedRepo: processedRepo,
	}
}

func (s *StripeWebhookService) HandleEvent(ctx context.Context, payload []byte, sigHeader string) (bool, error) {
	event, err := s.gateway.VerifyWebhook(payload, sigHeader)
	if err != nil {
		return false, fmt.Errorf("%w: %v", utils.ErrBadSignature, err)
	}

	duplicate, err := s.processedRepo.MarkProcessed(ctx, db_models.ProviderStripe, event.ID)
	if err != nil {
		return false, err
	}
	if duplicate {
		return true, nil
	}

	// Stripe gives no ordering guarantee; every handler below must be safe
	// under redelivery and reordering. Unknown event types are acked so the
	// provider stops resending them.
	switch event.Type {
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, event)
	case "account.updated":
		err = s.handleAccountUpdated(ctx, event)
	case "invoice.payment_succeeded":
		err = s.handlePaymentSucceeded(ctx, event)
	case "invoice.payment_failed":
		err = s.handlePaymentFailed(ctx, event)
	default:
		log.Printf("Unhandled Stripe event: %s", event.Type)
	}
	return false, err
}

func (s *StripeWebhookService) handleCheckoutCompleted(ctx context.Context, event stripesdk.Event) error {
	var session stripesdk.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("parse checkout session: %w", err)
	}

	metadata := map[string]string{}
	for k, v := range session.Metadata {
		metadata[k] = v
	}

	// Hosted-checkout sessions do not always carry full metadata inline; the
	// authoritative copy lives on the subscription or payment intent.
	var providerSubID *string
	if session.Subscription != nil && session.Subscription.ID != "" {
		subID := session.Subscription.ID
		providerSubID = &subID
		more, err := s.gateway.SubscriptionMetadata(ctx, subID)
		if err != nil {
			return fmt.Errorf("fetch subscription metadata: %w", err)
		}
		mergeMetadata(metadata, more)
	} else if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		more, err := s.gateway.PaymentIntentMetadata(ctx, session.PaymentIntent.ID)
		if err != nil {
			return fmt.Errorf("fetch payment intent metadata: %w", err)
		}
		mergeMetadata(metadata, more)
	}

	// A duplicated checkout.session.completed must not create a second row.
	if providerSubID != nil {
		existing, err := s.subRepo.GetByProviderSubscriptionID(ctx, *providerSubID)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Printf("Subscription already exists for %s", *providerSubID)
			return nil
		}
	}

	orgID, err := uuid.Parse(metadata["organization_id"])
	if err != nil {
		// Not one of ours (or broken metadata); retrying cannot help.
		log.Printf("checkout.session.completed %s without organization_id metadata", session.ID)
		return nil
	}

	interval := db_models.IntervalOneTime
	if session.Mode == stripesdk.CheckoutSessionModeSubscription {
		interval = db_models.IntervalMonthly
	}

	sponsorEmail := session.CustomerEmail
	if sponsorEmail == "" {
		sponsorEmail = metadata["sponsor_email"]
	}

	now := utils.NowUnixSeconds()
	sub := &db_models.Subscription{
		Provider:               db_models.ProviderStripe,
		ProviderSubscriptionID: providerSubID,
		ProviderCustomerID:     customerID(&session),
		SponsorEmail:           sponsorEmail,
		SponsorName:            optionalString(metadata["sponsor_name"]),
		OrganizationID:         orgID,
		GroupID:                parseOptionalUUID(metadata["group_id"]),
		IndividualID:           parseOptionalUUID(metadata["individual_id"]),
		AmountMinor:            session.AmountTotal,
		Interval:               interval,
		Status:                 db_models.SubStatusActive,
		StartedAt:              &now,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent duplicate delivery.
			return nil
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (s *StripeWebhookService) handleSubscriptionDeleted(ctx context.Context, event stripesdk.Event) error {
	var sub stripesdk.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	rows, err := s.subRepo.Cancel(ctx, sub.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("customer.subscription.deleted for unknown subscription %s", sub.ID)
	}
	return nil
}

func (s *StripeWebhookService) handleAccountUpdated(ctx context.Context, event stripesdk.Event) error {
	var account stripesdk.Account
	if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
		return fmt.Errorf("parse account: %w", err)
	}

	rows, err := s.orgRepo.SetStripeChargesEnabled(ctx, account.ID, account.ChargesEnabled)
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("account.updated for unknown account %s", account.ID)
	}
	return nil
}

func (s *StripeWebhookService) handlePaymentSucceeded(ctx context.Context, event stripesdk.Event) error {
	var invoice stripesdk.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}

	// The initial invoice accompanies subscription creation, which the
	// checkout.session.completed handler already records. Only recurring
	// invoices become transactions here.
	if invoice.Subscription == nil || invoice.Subscription.ID == "" ||
		invoice.BillingReason == stripesdk.InvoiceBillingReasonSubscriptionCreate {
		return nil
	}

	sub, err := s.subRepo.GetByProviderSubscriptionID(ctx, invoice.Subscription.ID)
	if err != nil {
		return err
	}
	if sub == nil {
		log.Printf("invoice.payment_succeeded: subscription not found for %s", invoice.Subscription.ID)
		return nil
	}

	if invoice.Charge == nil || invoice.Charge.ID == "" {
		log.Printf("invoice.payment_succeeded %s with no charge id", invoice.ID)
		return nil
	}
	chargeID := invoice.Charge.ID

	existing, err := s.txnRepo.GetByChargeID(ctx, db_models.ProviderStripe, chargeID)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Printf("Transaction already exists for charge %s", chargeID)
		return nil
	}

	now := utils.NowUnixSeconds()
	txn := &db_models.Transaction{
		SubscriptionID:   sub.ID,
		Provider:         db_models.ProviderStripe,
		ProviderChargeID: &chargeID,
		OrganizationID:   sub.OrganizationID,
		GroupID:          sub.GroupID,
		IndividualID:     sub.IndividualID,
		AmountMinor:      invoice.AmountPaid,
		PlatformFeeMinor: utils.PlatformFee(invoice.AmountPaid),
		Status:           db_models.TxnStatusSucceeded,
		PaidAt:           &now,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *StripeWebhookService) handlePaymentFailed(ctx context.Context, event stripesdk.Event) error {
	var invoice stripesdk.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}

	if invoice.Charge != nil && invoice.Charge.ID != "" {
		if _, err := s.txnRepo.MarkFailedByChargeID(ctx, db_models.ProviderStripe, invoice.Charge.ID); err != nil {
			return err
		}
	}

	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		return nil
	}
	sub, err := s.subRepo.GetByProviderSubscriptionID(ctx, invoice.Subscription.ID)
	if err != nil {
		return err
	}
	if sub != nil {
		// Notification dispatch is handled out of band; the log line is the
		// hook for it.
		log.Printf("Should notify %s about failed payment for %s", sub.SponsorEmail, sub.Organization.Name)
	}
	return nil
}

func customerID(session *stripesdk.CheckoutSession) *string {
	if session.Customer == nil || session.Customer.ID == "" {
		return nil
	}
	id := session.Customer.ID
	return &id
}

func mergeMetadata(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

func parseOptionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
