package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	stripesdk "github.com/stripe/stripe-go/v74"

	"minsponsor/internal/models/db_models"
	"minsponsor/internal/providers/stripe"
	"minsponsor/internal/providers/vipps"
)

// Common test errors
var (
	ErrMockDB       = errors.New("mock database error")
	ErrMockProvider = errors.New("mock provider error")
)

// MockOrganizationRepo implements repositories.IOrganizationRepository.
type MockOrganizationRepo struct {
	mu          sync.Mutex
	Orgs        map[uuid.UUID]*db_models.Organization
	Groups      map[uuid.UUID]*db_models.Group
	Individuals map[uuid.UUID]*db_models.Individual

	ChargesEnabledCalls []string
	ChargesEnabledRows  int64
	StripeAccounts      map[uuid.UUID]string
	FailOnGet           bool
}

func NewMockOrganizationRepo() *MockOrganizationRepo {
	return &MockOrganizationRepo{
		Orgs:           make(map[uuid.UUID]*db_models.Organization),
		Groups:         make(map[uuid.UUID]*db_models.Group),
		Individuals:    make(map[uuid.UUID]*db_models.Individual),
		StripeAccounts: make(map[uuid.UUID]string),
	}
}

func (m *MockOrganizationRepo) GetActiveByID(ctx context.Context, id uuid.UUID) (*db_models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOnGet {
		return nil, ErrMockDB
	}
	org, ok := m.Orgs[id]
	if !ok || org.Status != db_models.OrgStatusActive {
		return nil, nil
	}
	return org, nil
}

func (m *MockOrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOnGet {
		return nil, ErrMockDB
	}
	return m.Orgs[id], nil
}

func (m *MockOrganizationRepo) GetGroup(ctx context.Context, id uuid.UUID) (*db_models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Groups[id], nil
}

func (m *MockOrganizationRepo) GetIndividual(ctx context.Context, id uuid.UUID) (*db_models.Individual, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Individuals[id], nil
}

func (m *MockOrganizationRepo) SetStripeAccount(ctx context.Context, orgID uuid.UUID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StripeAccounts[orgID] = accountID
	if org, ok := m.Orgs[orgID]; ok {
		org.StripeAccountID = &accountID
	}
	return nil
}

func (m *MockOrganizationRepo) SetStripeChargesEnabled(ctx context.Context, stripeAccountID string, enabled bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChargesEnabledCalls = append(m.ChargesEnabledCalls, fmt.Sprintf("%s=%t", stripeAccountID, enabled))
	rows := m.ChargesEnabledRows
	for _, org := range m.Orgs {
		if org.StripeAccountID != nil && *org.StripeAccountID == stripeAccountID {
			org.StripeChargesEnabled = enabled
			rows++
		}
	}
	return rows, nil
}

// MockSubscriptionRepo implements repositories.ISubscriptionRepository with an
// in-memory map keyed by subscription id.
type MockSubscriptionRepo struct {
	mu   sync.Mutex
	Subs map[uuid.UUID]*db_models.Subscription

	CreateCount  int
	DeleteCount  int
	DeletedIDs   []uuid.UUID
	FailOnCreate error
	FailOnList   bool
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{Subs: make(map[uuid.UUID]*db_models.Subscription)}
}

func (m *MockSubscriptionRepo) Create(ctx context.Context, sub *db_models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCount++
	if m.FailOnCreate != nil {
		return m.FailOnCreate
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	m.Subs[sub.ID] = sub
	return nil
}

func (m *MockSubscriptionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCount++
	m.DeletedIDs = append(m.DeletedIDs, id)
	delete(m.Subs, id)
	return nil
}

func (m *MockSubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Subs[id], nil
}

func (m *MockSubscriptionRepo) GetByProviderSubscriptionID(ctx context.Context, psid string) (*db_models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.Subs {
		if sub.ProviderSubscriptionID != nil && *sub.ProviderSubscriptionID == psid {
			return sub, nil
		}
	}
	return nil, nil
}

func (m *MockSubscriptionRepo) SetProviderSubscriptionID(ctx context.Context, id uuid.UUID, psid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.Subs[id]; ok {
		sub.ProviderSubscriptionID = &psid
	}
	return nil
}

func (m *MockSubscriptionRepo) updateByPSID(psid string, fn func(*db_models.Subscription)) int64 {
	var rows int64
	for _, sub := range m.Subs {
		if sub.ProviderSubscriptionID != nil && *sub.ProviderSubscriptionID == psid {
			fn(sub)
			rows++
		}
	}
	return rows
}

func (m *MockSubscriptionRepo) Activate(ctx context.Context, psid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateByPSID(psid, func(s *db_models.Subscription) {
		s.Status = db_models.SubStatusActive
	}), nil
}

func (m *MockSubscriptionRepo) Cancel(ctx context.Context, psid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateByPSID(psid, func(s *db_models.Subscription) {
		s.Status = db_models.SubStatusCancelled
	}), nil
}

func (m *MockSubscriptionRepo) Expire(ctx context.Context, psid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateByPSID(psid, func(s *db_models.Subscription) {
		s.Status = db_models.SubStatusExpired
	}), nil
}

func (m *MockSubscriptionRepo) ActivateByID(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.Subs[id]; ok {
		sub.Status = db_models.SubStatusActive
	}
	return nil
}

func (m *MockSubscriptionRepo) ExpireByID(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.Subs[id]; ok {
		sub.Status = db_models.SubStatusExpired
	}
	return nil
}

func (m *MockSubscriptionRepo) ListActiveVippsMonthly(ctx context.Context) ([]db_models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOnList {
		return nil, ErrMockDB
	}
	var subs []db_models.Subscription
	for _, sub := range m.Subs {
		if sub.Provider == db_models.ProviderVipps &&
			sub.Status == db_models.SubStatusActive &&
			sub.Interval == db_models.IntervalMonthly &&
			sub.ProviderSubscriptionID != nil {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

// MockTransactionRepo implements repositories.ITransactionRepository. The
// DuplicateOnCreate error stands in for the unique-index collision the real
// repository surfaces as gorm.ErrDuplicatedKey.
type MockTransactionRepo struct {
	mu   sync.Mutex
	Txns []*db_models.Transaction

	CreateCount       int
	DuplicateOnCreate error
	FailOnExists      bool
	LastSucceeded     map[uuid.UUID]int64
	MonthExists       map[uuid.UUID]bool
}

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{
		LastSucceeded: make(map[uuid.UUID]int64),
		MonthExists:   make(map[uuid.UUID]bool),
	}
}

func (m *MockTransactionRepo) Create(ctx context.Context, txn *db_models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCount++
	if m.DuplicateOnCreate != nil {
		return m.DuplicateOnCreate
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}
	m.Txns = append(m.Txns, txn)
	return nil
}

func (m *MockTransactionRepo) GetByChargeID(ctx context.Context, provider db_models.PaymentProvider, chargeID string) (*db_models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, txn := range m.Txns {
		if txn.Provider == provider && txn.ProviderChargeID != nil && *txn.ProviderChargeID == chargeID {
			return txn, nil
		}
	}
	return nil, nil
}

func (m *MockTransactionRepo) MarkSucceededByChargeID(ctx context.Context, provider db_models.PaymentProvider, chargeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows int64
	for _, txn := range m.Txns {
		if txn.Provider == provider && txn.ProviderChargeID != nil && *txn.ProviderChargeID == chargeID {
			txn.Status = db_models.TxnStatusSucceeded
			rows++
		}
	}
	return rows, nil
}

func (m *MockTransactionRepo) MarkFailedByChargeID(ctx context.Context, provider db_models.PaymentProvider, chargeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows int64
	for _, txn := range m.Txns {
		if txn.Provider == provider && txn.ProviderChargeID != nil && *txn.ProviderChargeID == chargeID {
			txn.Status = db_models.TxnStatusFailed
			rows++
		}
	}
	return rows, nil
}

func (m *MockTransactionRepo) ExistsForSubscriptionBetween(ctx context.Context, subID uuid.UUID, fromUnix, toUnix int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOnExists {
		return false, ErrMockDB
	}
	if m.MonthExists[subID] {
		return true, nil
	}
	for _, txn := range m.Txns {
		if txn.SubscriptionID == subID && txn.CreatedAt >= fromUnix && txn.CreatedAt < toUnix {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockTransactionRepo) LastSucceededAt(ctx context.Context, subID uuid.UUID) (*int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if at, ok := m.LastSucceeded[subID]; ok {
		return &at, nil
	}
	return nil, nil
}

// MockProcessedEventRepo implements repositories.IProcessedEventRepository as
// an in-memory (provider, event_id) set.
type MockProcessedEventRepo struct {
	mu     sync.Mutex
	Seen   map[string]bool
	FailOn bool
}

func NewMockProcessedEventRepo() *MockProcessedEventRepo {
	return &MockProcessedEventRepo{Seen: make(map[string]bool)}
}

func (m *MockProcessedEventRepo) MarkProcessed(ctx context.Context, provider db_models.PaymentProvider, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn {
		return false, ErrMockDB
	}
	key := string(provider) + ":" + eventID
	if m.Seen[key] {
		return true, nil
	}
	m.Seen[key] = true
	return false, nil
}

// MockStripeGateway implements stripe.Gateway.
type MockStripeGateway struct {
	mu sync.Mutex

	VerifyFunc       func(payload []byte, sigHeader string) (stripesdk.Event, error)
	SessionFunc      func(ctx context.Context, p stripe.SessionParams) (string, error)
	SessionCalls     []stripe.SessionParams
	SubMetadata      map[string]map[string]string
	PIMetadata       map[string]map[string]string
	AccountID        string
	AccountLinkURL   string
	FailOnAccount    bool
	CreatedAccounts  []string
	AccountLinkCalls []string
}

func NewMockStripeGateway() *MockStripeGateway {
	return &MockStripeGateway{
		SubMetadata:    make(map[string]map[string]string),
		PIMetadata:     make(map[string]map[string]string),
		AccountID:      "acct_mock",
		AccountLinkURL: "https://connect.stripe.com/setup/mock",
	}
}

func (m *MockStripeGateway) VerifyWebhook(payload []byte, sigHeader string) (stripesdk.Event, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(payload, sigHeader)
	}
	return stripesdk.Event{}, nil
}

func (m *MockStripeGateway) CreateCheckoutSession(ctx context.Context, p stripe.SessionParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionCalls = append(m.SessionCalls, p)
	if m.SessionFunc != nil {
		return m.SessionFunc(ctx, p)
	}
	return "https://checkout.stripe.com/c/pay/mock", nil
}

func (m *MockStripeGateway) SubscriptionMetadata(ctx context.Context, subscriptionID string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if md, ok := m.SubMetadata[subscriptionID]; ok {
		return md, nil
	}
	return map[string]string{}, nil
}

func (m *MockStripeGateway) PaymentIntentMetadata(ctx context.Context, paymentIntentID string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if md, ok := m.PIMetadata[paymentIntentID]; ok {
		return md, nil
	}
	return map[string]string{}, nil
}

func (m *MockStripeGateway) CreateConnectAccount(ctx context.Context, orgID, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOnAccount {
		return "", ErrMockProvider
	}
	m.CreatedAccounts = append(m.CreatedAccounts, orgID)
	return m.AccountID, nil
}

func (m *MockStripeGateway) CreateAccountLink(ctx context.Context, accountID, orgID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccountLinkCalls = append(m.AccountLinkCalls, accountID)
	return m.AccountLinkURL, nil
}

// MockVippsClient implements vipps.Client.
type MockVippsClient struct {
	mu sync.Mutex

	AgreementFunc    func(ctx context.Context, msn string, p vipps.AgreementParams) (*vipps.AgreementRef, error)
	AgreementCalls   []vipps.AgreementParams
	AgreementStatus  vipps.AgreementStatus
	FailOnGet        bool
	ChargeFunc       func(ctx context.Context, msn, agreementID string, p vipps.ChargeParams) (*vipps.ChargeRef, error)
	ChargeCalls      []vipps.ChargeParams
	ChargeAgreements []string
	StoppedIDs       []string
}

func NewMockVippsClient() *MockVippsClient {
	return &MockVippsClient{AgreementStatus: vipps.AgreementActive}
}

func (m *MockVippsClient) CreateAgreement(ctx context.Context, msn string, p vipps.AgreementParams) (*vipps.AgreementRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AgreementCalls = append(m.AgreementCalls, p)
	if m.AgreementFunc != nil {
		return m.AgreementFunc(ctx, msn, p)
	}
	return &vipps.AgreementRef{
		AgreementID:          "agr_mock",
		VippsConfirmationURL: "https://apitest.vipps.no/dwo-api-application/v1/deeplink/confirm",
	}, nil
}

func (m *MockVippsClient) GetAgreement(ctx context.Context, msn, agreementID string) (*vipps.Agreement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOnGet {
		return nil, ErrMockProvider
	}
	return &vipps.Agreement{ID: agreementID, Status: m.AgreementStatus}, nil
}

func (m *MockVippsClient) CreateCharge(ctx context.Context, msn, agreementID string, p vipps.ChargeParams) (*vipps.ChargeRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChargeCalls = append(m.ChargeCalls, p)
	m.ChargeAgreements = append(m.ChargeAgreements, agreementID)
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, msn, agreementID, p)
	}
	return &vipps.ChargeRef{ChargeID: fmt.Sprintf("chr_mock_%d", len(m.ChargeCalls))}, nil
}

func (m *MockVippsClient) StopAgreement(ctx context.Context, msn, agreementID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoppedIDs = append(m.StoppedIDs, agreementID)
	return nil
}
