package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minsponsor/internal/models/db_models"
	"minsponsor/internal/models/request_models"
	"minsponsor/internal/providers/vipps"
	"minsponsor/pkg/utils"
)

func strPtr(s string) *string { return &s }

func activeOrg() *db_models.Organization {
	org := &db_models.Organization{
		Name:                 "IL Fremad",
		Slug:                 "il-fremad",
		ContactEmail:         "post@fremad.no",
		StripeAccountID:      strPtr("acct_123"),
		StripeChargesEnabled: true,
		VippsMSN:             strPtr("654321"),
		VippsEnabled:         true,
		Status:               db_models.OrgStatusActive,
	}
	org.ID = uuid.New()
	return org
}

func checkoutFixture() (*MockOrganizationRepo, *MockSubscriptionRepo, *MockStripeGateway, *MockVippsClient, CheckoutServiceInterface) {
	orgRepo := NewMockOrganizationRepo()
	subRepo := NewMockSubscriptionRepo()
	stripeGW := NewMockStripeGateway()
	vippsClient := NewMockVippsClient()
	svc := NewCheckoutService(orgRepo, subRepo, stripeGW, vippsClient, SiteConfig{BaseURL: "https://minsponsor.no"})
	return orgRepo, subRepo, stripeGW, vippsClient, svc
}

func orgRequest(org *db_models.Organization, method, interval string) request_models.CheckoutRequest {
	return request_models.CheckoutRequest{
		PaymentMethod: method,
		Recipient: request_models.CheckoutRecipient{
			Type:           "organization",
			OrganizationID: org.ID.String(),
		},
		Amount:       20_000,
		Interval:     interval,
		SponsorEmail: "kari@example.com",
		SponsorName:  "Kari Nordmann",
		SponsorPhone: "412 34 567",
	}
}

func TestCheckout_AmountBounds(t *testing.T) {
	orgRepo, _, _, _, svc := checkoutFixture()
	org := activeOrg()
	orgRepo.Orgs[org.ID] = org

	for _, amount := range []int64{0, 999, 10_000_001} {
		req := orgRequest(org, "stripe", "one_time")
		req.Amount = amount
		_, err := svc.Checkout(context.Background(), req)
		assert.ErrorIs(t, err, utils.ErrInvalidAmount, "amount %d", amount)
	}
}

func TestCheckout_UnknownOrganization(t *testing.T) {
	_, _, _, _, svc := checkoutFixture()
	org := activeOrg()

	_, err := svc.Checkout(context.Background(), orgRequest(org, "stripe", "monthly"))
	assert.ErrorIs(t, err, utils.ErrOrgNotFound)
}

func TestCheckout_SuspendedOrganizationNotFound(t *testing.T) {
	orgRepo, _, _, _, svc := checkoutFixture()
	org := activeOrg()
	org.Status = db_models.OrgStatusSuspended
	orgRepo.Orgs[org.ID] = org

	_, err := svc.Checkout(context.Background(), orgRequest(org, "stripe", "monthly"))
	assert.ErrorIs(t, err, utils.ErrOrgNotFound)
}

func TestCheckout_StripeDisabledOrgRejected(t *testing.T) {
	orgRepo, _, stripeGW, _, svc := checkoutFixture()
	org := activeOrg()
	org.StripeChargesEnabled = false
	orgRepo.Orgs[org.ID] = org

	_, err := svc.Checkout(context.Background(), orgRequest(org, "stripe", "monthly"))
	assert.ErrorIs(t, err, utils.ErrOrgNotAcceptingPayments)
	assert.Empty(t, stripeGW.SessionCalls)
}

func TestCheckout_VippsDisabledOrgRejected(t *testing.T) {
	orgRepo, subRepo, _, vippsClient, svc := checkoutFixture()
	org := activeOrg()
	org.VippsEnabled = false
	orgRepo.Orgs[org.ID] = org

	_, err := svc.Checkout(context.Background(), orgRequest(org, "vipps", "monthly"))
	assert.ErrorIs(t, err, utils.ErrOrgNotAcceptingPayments)
	assert.Zero(t, subRepo.CreateCount)
	assert.Empty(t, vippsClient.AgreementCalls)
}

func TestCheckout_AllProvidersDisabledRejected(t *testing.T) {
	orgRepo, subRepo, stripeGW, vippsClient, svc := checkoutFixture()
	org := activeOrg()
	org.StripeChargesEnabled = false
	org.VippsEnabled = false
	orgRepo.Orgs[org.ID] = org

	for _, method := range []string{"stripe", "vipps"} {
		_, err := svc.Checkout(context.Background(), orgRequest(org, method, "monthly"))
		assert.ErrorIs(t, err, utils.ErrOrgNotAcceptingPayments, "method %s", method)
	}
	assert.Empty(t, stripeGW.SessionCalls)
	assert.Empty(t, vippsClient.AgreementCalls)
	assert.Zero(t, subRepo.CreateCount)
}

func TestCheckout_VippsOneTimeUnsupported(t *testing.T) {
	orgRepo, subRepo, _, vippsClient, svc := checkoutFixture()
	org := activeOrg()
	orgRepo.Orgs[org.ID] = org

	_, err := svc.Checkout(context.Background(), orgRequest(org, "vipps", "one_time"))
	assert.ErrorIs(t, err, utils.ErrUnsupportedInterval)
	// No pending row and no agreement call may have happened.
	assert.Zero(t, subRepo.CreateCount)
	assert.Empty(t, vippsClient.AgreementCalls)
}

func TestCheckout_VippsMissingPhone(t *testing.T) {
	orgRepo, subRepo, _, _, svc := checkoutFixture()
	org := activeOrg()
	orgRepo.Orgs[org.ID] = org

	req := orgRequest(org, "vipps", "monthly")
	req.SponsorPhone = ""
	_, err := svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, utils.ErrMissingPhone)
	assert.Zero(t, subRepo.CreateCount)
}

func TestCheckout_VippsHappyPath(t *testing.T) {
	orgRepo, subRepo, _, vippsClient, svc := checkoutFixture()
	org := activeOrg()
	orgRepo.Orgs[org.ID] = org

	resp, err := svc.Checkout(context.Background(), orgRequest(org, "vipps", "monthly"))
	require.NoError(t, err)
	assert.Equal(t, "https://apitest.vipps.no/dwo-api-application/v1/deeplink/confirm", resp.URL)

	require.Len(t, subRepo.Subs, 1)
	for _, sub := range subRepo.Subs {
		assert.Equal(t, db_models.SubStatusPending, sub.Status)
		assert.Equal(t, db_models.ProviderVipps, sub.Provider)
		require.NotNil(t, sub.ProviderSubscriptionID)
		assert.Equal(t, "agr_mock", *sub.ProviderSubscriptionID)
		require.NotNil(t, sub.SponsorPhone)
		assert.Equal(t, "4741234567", *sub.SponsorPhone)
	}
	assert.Zero(t, subRepo.DeleteCount)

	require.Len(t, vippsClient.AgreementCalls, 1)
	call := vippsClient.AgreementCalls[0]
	assert.Equal(t, int64(20_000), call.AmountMinor)
	assert.Equal(t, "Støtte til IL Fremad", call.ProductName)
	assert.Contains(t, call.MerchantRedirectURL, "/checkout/vipps/callback?sub=")
}

func TestCheckout_VippsAgreementFailureCompensates(t *testing.T) {
	orgRepo, subRepo, _, vippsClient, svc := checkoutFixture()
	org := activeOrg()
	orgRepo.Orgs[org.ID] = org
	vippsClient.AgreementFunc = func(ctx context.Context, msn string, p vipps.AgreementParams) (*vipps.AgreementRef, error) {
		return nil, ErrMockProvider
	}

	_, err := svc.Checkout(context.Background(), orgRequest(org, "vipps", "monthly"))
	assert.ErrorIs(t, err, utils.ErrProviderUnavailable)

	// The pending row was written first and must have been compensated away.
	assert.Equal(t, 1, subRepo.CreateCount)
	assert.Equal(t, 1, subRepo.DeleteCount)
	assert.Empty(t, subRepo.Subs)
}

func TestCheckout_StripeHappyPath(t *testing.T) {
	orgRepo, subRepo, stripeGW, _, svc := checkoutFixture()
	org := activeOrg()
	orgRepo.Orgs[org.ID] = org

	resp, err := svc.Checkout(context.Background(), orgRequest(org, "stripe", "monthly"))
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/mock", resp.URL)

	// The Stripe path writes nothing locally; the webhook creates the row.
	assert.Zero(t, subRepo.CreateCount)

	require.Len(t, stripeGW.SessionCalls, 1)
	call := stripeGW.SessionCalls[0]
	assert.True(t, call.Monthly)
	assert.Equal(t, "acct_123", call.ConnectedAccount)
	assert.Equal(t, float64(utils.PlatformFeePercent), call.ApplicationFeePct)
	assert.Equal(t, org.ID.String(), call.Metadata["organization_id"])
	assert.Empty(t, call.Metadata["group_id"])
}

func TestCheckout_StripeOneTime(t *testing.T) {
	orgRepo, _, stripeGW, _, svc := checkoutFixture()
	org := activeOrg()
	orgRepo.Orgs[org.ID] = org

	_, err := svc.Checkout(context.Background(), orgRequest(org, "stripe", "one_time"))
	require.NoError(t, err)
	require.Len(t, stripeGW.SessionCalls, 1)
	assert.False(t, stripeGW.SessionCalls[0].Monthly)
}

func TestCheckout_RecipientValidation(t *testing.T) {
	orgRepo, _, stripeGW, _, svc := checkoutFixture()
	org := activeOrg()
	otherOrg := activeOrg()
	orgRepo.Orgs[org.ID] = org
	orgRepo.Orgs[otherOrg.ID] = otherOrg

	group := &db_models.Group{OrganizationID: org.ID, Name: "G14", Slug: "g14"}
	group.ID = uuid.New()
	orgRepo.Groups[group.ID] = group

	foreignGroup := &db_models.Group{OrganizationID: otherOrg.ID, Name: "Other", Slug: "other"}
	foreignGroup.ID = uuid.New()
	orgRepo.Groups[foreignGroup.ID] = foreignGroup

	ind := &db_models.Individual{OrganizationID: org.ID, GroupID: &group.ID, FirstName: "Ola", LastName: "Hansen", Slug: "ola-hansen"}
	ind.ID = uuid.New()
	orgRepo.Individuals[ind.ID] = ind

	base := orgRequest(org, "stripe", "monthly")

	t.Run("group in org accepted", func(t *testing.T) {
		req := base
		req.Recipient = request_models.CheckoutRecipient{
			Type:           "group",
			OrganizationID: org.ID.String(),
			GroupID:        group.ID.String(),
		}
		_, err := svc.Checkout(context.Background(), req)
		require.NoError(t, err)
		last := stripeGW.SessionCalls[len(stripeGW.SessionCalls)-1]
		assert.Equal(t, group.ID.String(), last.Metadata["group_id"])
	})

	t.Run("group from another org rejected", func(t *testing.T) {
		req := base
		req.Recipient = request_models.CheckoutRecipient{
			Type:           "group",
			OrganizationID: org.ID.String(),
			GroupID:        foreignGroup.ID.String(),
		}
		_, err := svc.Checkout(context.Background(), req)
		assert.ErrorIs(t, err, utils.ErrInvalidRecipient)
	})

	t.Run("individual with own group accepted", func(t *testing.T) {
		req := base
		req.Recipient = request_models.CheckoutRecipient{
			Type:           "individual",
			OrganizationID: org.ID.String(),
			GroupID:        group.ID.String(),
			IndividualID:   ind.ID.String(),
		}
		_, err := svc.Checkout(context.Background(), req)
		require.NoError(t, err)
		last := stripeGW.SessionCalls[len(stripeGW.SessionCalls)-1]
		assert.Equal(t, ind.ID.String(), last.Metadata["individual_id"])
	})

	t.Run("individual with foreign group rejected", func(t *testing.T) {
		req := base
		req.Recipient = request_models.CheckoutRecipient{
			Type:           "individual",
			OrganizationID: org.ID.String(),
			GroupID:        foreignGroup.ID.String(),
			IndividualID:   ind.ID.String(),
		}
		_, err := svc.Checkout(context.Background(), req)
		assert.ErrorIs(t, err, utils.ErrInvalidRecipient)
	})

	t.Run("unknown recipient type rejected", func(t *testing.T) {
		req := base
		req.Recipient.Type = "team"
		_, err := svc.Checkout(context.Background(), req)
		assert.ErrorIs(t, err, utils.ErrInvalidRecipient)
	})
}
