package stripe

import (
	"context"
	"fmt"

	stripesdk "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	// Public base URL of the site, used for redirect targets.
	BaseURL string
}

// SessionParams describes one hosted-checkout session. The recipient and
// sponsor identifiers travel as opaque metadata that Stripe echoes back on
// the webhook.
type SessionParams struct {
	OrgName           string
	OrgSlug           string
	ConnectedAccount  string
	AmountMinor       int64
	Monthly           bool
	SponsorEmail      string
	ApplicationFeePct float64
	Metadata          map[string]string
}

type Gateway interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripesdk.Event, error)
	CreateCheckoutSession(ctx context.Context, p SessionParams) (string, error)
	SubscriptionMetadata(ctx context.Context, subscriptionID string) (map[string]string, error)
	PaymentIntentMetadata(ctx context.Context, paymentIntentID string) (map[string]string, error)
	CreateConnectAccount(ctx context.Context, orgID, email string) (accountID string, err error)
	CreateAccountLink(ctx context.Context, accountID, orgID string) (string, error)
}

type gateway struct {
	api *client.API
	cfg Config
}

func NewGateway(cfg Config) Gateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &gateway{api: api, cfg: cfg}
}

func (g *gateway) VerifyWebhook(payload []byte, sigHeader string) (stripesdk.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, g.cfg.WebhookSecret)
}

func (g *gateway) CreateCheckoutSession(ctx context.Context, p SessionParams) (string, error) {
	params := g.sessionParams(p)
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// sessionParams builds the hosted-checkout request. The recipient metadata is
// attached both at the session level and on the subscription / payment intent,
// because the webhook may see either copy first.
func (g *gateway) sessionParams(p SessionParams) *stripesdk.CheckoutSessionParams {
	lineItem := &stripesdk.CheckoutSessionLineItemParams{
		PriceData: &stripesdk.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripesdk.String("nok"),
			UnitAmount: stripesdk.Int64(p.AmountMinor),
			ProductData: &stripesdk.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripesdk.String(fmt.Sprintf("Støtte til %s", p.OrgName)),
			},
		},
		Quantity: stripesdk.Int64(1),
	}

	params := &stripesdk.CheckoutSessionParams{
		CustomerEmail: stripesdk.String(p.SponsorEmail),
		LineItems:     []*stripesdk.CheckoutSessionLineItemParams{lineItem},
		SuccessURL:    stripesdk.String(g.cfg.BaseURL + "/bekreftelse?session_id={CHECKOUT_SESSION_ID}&provider=stripe"),
		CancelURL:     stripesdk.String(g.cfg.BaseURL + "/stott/" + p.OrgSlug),
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	if p.Monthly {
		lineItem.PriceData.Recurring = &stripesdk.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripesdk.String("month"),
		}
		params.Mode = stripesdk.String(string(stripesdk.CheckoutSessionModeSubscription))
		params.SubscriptionData = &stripesdk.CheckoutSessionSubscriptionDataParams{
			ApplicationFeePercent: stripesdk.Float64(p.ApplicationFeePct),
			TransferData: &stripesdk.CheckoutSessionSubscriptionDataTransferDataParams{
				Destination: stripesdk.String(p.ConnectedAccount),
			},
			Metadata: p.Metadata,
		}
	} else {
		params.Mode = stripesdk.String(string(stripesdk.CheckoutSessionModePayment))
		params.PaymentIntentData = &stripesdk.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripesdk.Int64(applicationFeeAmount(p.AmountMinor, p.ApplicationFeePct)),
			TransferData: &stripesdk.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripesdk.String(p.ConnectedAccount),
			},
			Metadata: p.Metadata,
		}
	}

	return params
}

func applicationFeeAmount(amountMinor int64, pct float64) int64 {
	return int64(float64(amountMinor)*pct/100 + 0.5)
}

func (g *gateway) SubscriptionMetadata(ctx context.Context, subscriptionID string) (map[string]string, error) {
	params := &stripesdk.SubscriptionParams{}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, err
	}
	return sub.Metadata, nil
}

func (g *gateway) PaymentIntentMetadata(ctx context.Context, paymentIntentID string) (map[string]string, error) {
	params := &stripesdk.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, err
	}
	return pi.Metadata, nil
}

// CreateConnectAccount creates the Express account a club receives payouts
// through. Onboarding itself happens on Stripe's hosted pages via the
// account link.
func (g *gateway) CreateConnectAccount(ctx context.Context, orgID, email string) (string, error) {
	params := &stripesdk.AccountParams{
		Type:    stripesdk.String(string(stripesdk.AccountTypeExpress)),
		Country: stripesdk.String("NO"),
		Email:   stripesdk.String(email),
		Capabilities: &stripesdk.AccountCapabilitiesParams{
			CardPayments: &stripesdk.AccountCapabilitiesCardPaymentsParams{
				Requested: stripesdk.Bool(true),
			},
			Transfers: &stripesdk.AccountCapabilitiesTransfersParams{
				Requested: stripesdk.Bool(true),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("organization_id", orgID)

	account, err := g.api.Accounts.New(params)
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

func (g *gateway) CreateAccountLink(ctx context.Context, accountID, orgID string) (string, error) {
	params := &stripesdk.AccountLinkParams{
		Account:    stripesdk.String(accountID),
		RefreshURL: stripesdk.String(g.cfg.BaseURL + "/admin/onboarding/refresh?org=" + orgID),
		ReturnURL:  stripesdk.String(g.cfg.BaseURL + "/admin/onboarding/complete?org=" + orgID),
		Type:       stripesdk.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}
