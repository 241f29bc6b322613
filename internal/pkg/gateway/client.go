package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
	"github.com/bountyhive/BountyHive/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.gateway.example/v1"

// RESTClient talks to the hosted payment gateway over its REST API.
// Every call carries a bounded timeout; 5xx responses and transport errors
// surface as gateway_unavailable so callers never hang or double-dispatch.
type RESTClient struct {
	APIBaseURL string
	SecretKey  string

	HTTPClient *http.Client
}

// NewClientFromEnv builds the REST client from GATEWAY_* environment variables.
func NewClientFromEnv() *RESTClient {
	return &RESTClient{
		APIBaseURL: strings.TrimRight(env.GetEnv("GATEWAY_API_BASE_URL", defaultAPIBaseURL), "/"),
		SecretKey:  strings.TrimSpace(env.GetEnv("GATEWAY_SECRET_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sessionResponse struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer"`
	PaymentRef string `json:"payment_intent"`
	URL        string `json:"url"`
	Status     string `json:"status"`
}

type transferResponse struct {
	ID string `json:"id"`
}

type refundResponse struct {
	ID string `json:"id"`
}

type accountResponse struct {
	ID               string `json:"id"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
}

func (c *RESTClient) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(in.AmountCents, 10))
	form.Set("currency", strings.ToLower(in.Currency))
	form.Set("customer_email", in.CustomerEmail)
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var out sessionResponse
	if err := c.postForm(ctx, "/checkout/sessions", form, "", &out); err != nil {
		return nil, err
	}
	if out.ID == "" || out.URL == "" {
		return nil, apperr.GatewayUnavailable(nil, "gateway returned an incomplete checkout session")
	}
	return &CheckoutSession{
		ID:          out.ID,
		CustomerID:  out.CustomerID,
		PaymentRef:  out.PaymentRef,
		RedirectURL: out.URL,
	}, nil
}

func (c *RESTClient) ConfirmSession(ctx context.Context, sessionID string) (SessionStatus, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", apperr.Validation("session id is required")
	}

	var out sessionResponse
	if err := c.get(ctx, "/checkout/sessions/"+url.PathEscape(sessionID), &out); err != nil {
		return "", err
	}
	switch strings.ToLower(out.Status) {
	case "complete", "paid", "confirmed":
		return SessionConfirmed, nil
	case "expired", "failed":
		return SessionFailed, nil
	default:
		return SessionPending, nil
	}
}

func (c *RESTClient) Transfer(ctx context.Context, in TransferInput) (string, error) {
	if strings.TrimSpace(in.DestinationAccount) == "" {
		return "", apperr.Validation("transfer destination account is required")
	}
	if strings.TrimSpace(in.IdempotencyKey) == "" {
		return "", apperr.Validation("transfer idempotency key is required")
	}

	form := url.Values{}
	form.Set("destination", in.DestinationAccount)
	form.Set("amount", strconv.FormatInt(in.AmountCents, 10))
	form.Set("currency", strings.ToLower(in.Currency))
	form.Set("transfer_group", in.GroupRef)

	var out transferResponse
	if err := c.postForm(ctx, "/transfers", form, in.IdempotencyKey, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", apperr.GatewayUnavailable(nil, "gateway returned a transfer without an id")
	}
	return out.ID, nil
}

func (c *RESTClient) Refund(ctx context.Context, in RefundInput) (string, error) {
	if strings.TrimSpace(in.PaymentRef) == "" {
		return "", apperr.Validation("refund payment reference is required")
	}
	if in.AmountCents <= 0 {
		return "", apperr.Validation("refund amount must be positive")
	}
	if strings.TrimSpace(in.IdempotencyKey) == "" {
		return "", apperr.Validation("refund idempotency key is required")
	}

	form := url.Values{}
	form.Set("payment_intent", in.PaymentRef)
	form.Set("amount", strconv.FormatInt(in.AmountCents, 10))
	form.Set("reason", in.Reason)

	var out refundResponse
	if err := c.postForm(ctx, "/refunds", form, in.IdempotencyKey, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", apperr.GatewayUnavailable(nil, "gateway returned a refund without an id")
	}
	return out.ID, nil
}

func (c *RESTClient) CreateAccount(ctx context.Context, email, country string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", apperr.Validation("payout account email is required")
	}

	form := url.Values{}
	form.Set("email", strings.TrimSpace(email))
	form.Set("country", strings.ToUpper(strings.TrimSpace(country)))
	form.Set("type", "express")

	var out accountResponse
	if err := c.postForm(ctx, "/accounts", form, "", &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", apperr.GatewayUnavailable(nil, "gateway returned an account without an id")
	}
	return out.ID, nil
}

func (c *RESTClient) GetAccount(ctx context.Context, accountID string) (*AccountStatus, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, apperr.Validation("payout account id is required")
	}

	var out accountResponse
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID), &out); err != nil {
		return nil, err
	}
	return &AccountStatus{
		AccountID:        out.ID,
		PayoutsEnabled:   out.PayoutsEnabled,
		ChargesEnabled:   out.ChargesEnabled,
		DetailsSubmitted: out.DetailsSubmitted,
	}, nil
}

func (c *RESTClient) postForm(ctx context.Context, path string, form url.Values, idempotencyKey string, out interface{}) error {
	if c.SecretKey == "" {
		return errors.New("GATEWAY_SECRET_KEY is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	return c.do(req, out)
}

func (c *RESTClient) get(ctx context.Context, path string, out interface{}) error {
	if c.SecretKey == "" {
		return errors.New("GATEWAY_SECRET_KEY is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	return c.do(req, out)
}

func (c *RESTClient) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return apperr.GatewayUnavailable(err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperr.GatewayUnavailable(err, "failed reading gateway response")
	}

	if resp.StatusCode >= 500 {
		return apperr.GatewayUnavailable(nil, "payment gateway error (status %d)", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway request %s failed (status %d): %s", req.URL.Path, resp.StatusCode, truncate(string(body), 200))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed decoding gateway response: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
