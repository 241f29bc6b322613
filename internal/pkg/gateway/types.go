package gateway

import "context"

// Provider is the identifier stored on webhook events and external references.
const Provider = "gateway"

// SessionStatus is the gateway's view of a checkout session.
type SessionStatus string

const (
	SessionConfirmed SessionStatus = "confirmed"
	SessionPending   SessionStatus = "pending"
	SessionFailed    SessionStatus = "failed"
)

// CheckoutSessionInput describes the hosted checkout to create for a funding.
type CheckoutSessionInput struct {
	AmountCents   int64
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutSession is the created hosted checkout handle.
type CheckoutSession struct {
	ID          string
	CustomerID  string
	PaymentRef  string
	RedirectURL string
}

// TransferInput moves escrowed funds to a creator's payout account.
// IdempotencyKey must be reused verbatim on any retry of the same transfer.
type TransferInput struct {
	DestinationAccount string
	AmountCents        int64
	Currency           string
	GroupRef           string
	IdempotencyKey     string
}

// RefundInput reverses part of a captured payment. AmountCents is required:
// several escrow records share one payment, so every refund is a partial
// refund of exactly one slot's amount.
type RefundInput struct {
	PaymentRef     string
	AmountCents    int64
	Reason         string
	IdempotencyKey string
}

// AccountStatus mirrors the gateway's payout account capability flags.
type AccountStatus struct {
	AccountID        string
	PayoutsEnabled   bool
	ChargesEnabled   bool
	DetailsSubmitted bool
}

// Client is the narrow payment-gateway capability surface the engine consumes.
type Client interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
	ConfirmSession(ctx context.Context, sessionID string) (SessionStatus, error)
	Transfer(ctx context.Context, in TransferInput) (string, error)
	Refund(ctx context.Context, in RefundInput) (string, error)
	CreateAccount(ctx context.Context, email, country string) (string, error)
	GetAccount(ctx context.Context, accountID string) (*AccountStatus, error)
}
