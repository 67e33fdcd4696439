package vipps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	productionBaseURL = "https://api.vipps.no"
	testBaseURL       = "https://apitest.vipps.no"
)

type Config struct {
	ClientID        string
	ClientSecret    string
	SubscriptionKey string
	TestMode        bool
	// APIBase overrides the Vipps API base URL. Tests point it at a local
	// server; leave empty in production.
	APIBase string
}

type AgreementParams struct {
	PhoneNumber          string
	AmountMinor          int64
	ProductName          string
	MerchantRedirectURL  string
	MerchantAgreementURL string
}

type AgreementRef struct {
	AgreementID          string `json:"agreementId"`
	VippsConfirmationURL string `json:"vippsConfirmationUrl"`
}

type AgreementStatus string

const (
	AgreementPending AgreementStatus = "PENDING"
	AgreementActive  AgreementStatus = "ACTIVE"
	AgreementStopped AgreementStatus = "STOPPED"
	AgreementExpired AgreementStatus = "EXPIRED"
)

type Agreement struct {
	ID          string          `json:"id"`
	Status      AgreementStatus `json:"status"`
	PhoneNumber string          `json:"phoneNumber"`
	ProductName string          `json:"productName"`
	Pricing     struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"pricing"`
}

type ChargeParams struct {
	AmountMinor int64
	Description string
	// DueDate in YYYY-MM-DD; must be at least two days out per the Vipps
	// recurring API.
	DueDate   string
	RetryDays int
}

type ChargeRef struct {
	ChargeID string `json:"chargeId"`
}

// Client wraps the Vipps recurring API. Vipps has no native recurring
// billing trigger: the merchant creates an agreement once and then actively
// requests every charge against it.
type Client interface {
	CreateAgreement(ctx context.Context, msn string, p AgreementParams) (*AgreementRef, error)
	GetAgreement(ctx context.Context, msn, agreementID string) (*Agreement, error)
	CreateCharge(ctx context.Context, msn, agreementID string, p ChargeParams) (*ChargeRef, error)
	StopAgreement(ctx context.Context, msn, agreementID string) error
}

type httpClient struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) Client {
	return &httpClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *httpClient) baseURL() string {
	if c.cfg.APIBase != "" {
		return c.cfg.APIBase
	}
	if c.cfg.TestMode {
		return testBaseURL
	}
	return productionBaseURL
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// fetchToken gets a fresh bearer token. Tokens are fetched per call; the
// recurring API is hit at most a few hundred times a day so caching is not
// worth the expiry bookkeeping.
func (c *httpClient) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/accesstoken/get", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("client_id", c.cfg.ClientID)
	req.Header.Set("client_secret", c.cfg.ClientSecret)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vipps access token: %s: %s", resp.Status, body)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

func (c *httpClient) newRequest(ctx context.Context, msn, method, path string, body interface{}) (*http.Request, error) {
	token, err := c.fetchToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)
	req.Header.Set("Merchant-Serial-Number", msn)
	req.Header.Set("Vipps-System-Name", "MinSponsor")
	req.Header.Set("Vipps-System-Version", "1.0.0")
	return req, nil
}

func (c *httpClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vipps: %s %s: %s: %s", req.Method, req.URL.Path, resp.Status, body)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *httpClient) CreateAgreement(ctx context.Context, msn string, p AgreementParams) (*AgreementRef, error) {
	body := map[string]interface{}{
		"phoneNumber": p.PhoneNumber,
		"interval":    map[string]interface{}{"unit": "MONTH", "count": 1},
		"pricing": map[string]interface{}{
			"amount":   p.AmountMinor,
			"currency": "NOK",
			"type":     "LEGACY",
		},
		"productName":          p.ProductName,
		"merchantRedirectUrl":  p.MerchantRedirectURL,
		"merchantAgreementUrl": p.MerchantAgreementURL,
	}

	req, err := c.newRequest(ctx, msn, http.MethodPost, "/recurring/v3/agreements", body)
	if err != nil {
		return nil, err
	}

	var ref AgreementRef
	if err := c.do(req, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (c *httpClient) GetAgreement(ctx context.Context, msn, agreementID string) (*Agreement, error) {
	req, err := c.newRequest(ctx, msn, http.MethodGet, "/recurring/v3/agreements/"+agreementID, nil)
	if err != nil {
		return nil, err
	}

	var agreement Agreement
	if err := c.do(req, &agreement); err != nil {
		return nil, err
	}
	return &agreement, nil
}

// CreateCharge requests one charge against an agreement. The idempotency key
// is derived from (agreement id, due date) so a retried cron run, or a
// retried HTTP call within one run, can never double-charge a cycle.
func (c *httpClient) CreateCharge(ctx context.Context, msn, agreementID string, p ChargeParams) (*ChargeRef, error) {
	retryDays := p.RetryDays
	if retryDays == 0 {
		retryDays = 5
	}
	body := map[string]interface{}{
		"amount":          p.AmountMinor,
		"description":     p.Description,
		"due":             p.DueDate,
		"transactionType": "DIRECT_CAPTURE",
		"retryDays":       retryDays,
		"type":            "RECURRING",
	}

	req, err := c.newRequest(ctx, msn, http.MethodPost, "/recurring/v3/agreements/"+agreementID+"/charges", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Idempotency-Key", agreementID+"-"+p.DueDate)

	var ref ChargeRef
	if err := c.do(req, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (c *httpClient) StopAgreement(ctx context.Context, msn, agreementID string) error {
	req, err := c.newRequest(ctx, msn, http.MethodPatch, "/recurring/v3/agreements/"+agreementID, map[string]string{
		"status": "STOPPED",
	})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
