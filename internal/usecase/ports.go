package usecase

import (
	"context"

	domain "github.com/istaaklogisquare-source/ebook-bot-clean/internal/entity"
)

// Persistence shape for a ledger row joined with its product title
// (kept out of domain).
type OrderRecord struct {
	ID        int64
	BuyerID   string
	ProductID int64
	Status    string
	SessionID string
	Title     string
}

// PaidOrder is one row of a buyer's purchase history.
type PaidOrder struct {
	OrderID int64
	Title   string
}

type CatalogRepo interface {
	FindByTitle(ctx context.Context, title string) (*domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
}

type OrderRepo interface {
	CreatePending(ctx context.Context, buyerID string, productID int64, sessionID string) (int64, error)
	GetBySessionID(ctx context.Context, sessionID string) (*OrderRecord, error)
	// MarkPaid flips pending -> paid. Returns false when no pending row
	// matched (already paid, or unknown session).
	MarkPaid(ctx context.Context, sessionID string) (bool, error)
	ListPaidForBuyer(ctx context.Context, buyerID string) ([]PaidOrder, error)
}

// CheckoutInput carries everything the processor needs for one session.
type CheckoutInput struct {
	ProductTitle string
	UnitAmount   int64 // minor units
	Currency     string
	SuccessURL   string
	CancelURL    string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type SessionStatus struct {
	ID            string
	PaymentStatus string // "paid", "unpaid", ...
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error)
}

// CheckoutLock guards against a buyer opening two sessions for the
// same title at once (double-click protection). Lock expiry is owned
// by the store's TTL; Unlock releases early when a checkout attempt
// fails so the buyer's retry isn't blocked for the full TTL.
type CheckoutLock interface {
	TryLock(ctx context.Context, buyerID, title string) (bool, error)
	Unlock(ctx context.Context, buyerID, title string) error
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, msg OrderCreatedMsg) error
	PublishOrderPaid(ctx context.Context, msg OrderPaidMsg) error
}

// Notifier delivers a private message to a buyer outside the
// request/reply cycle (used by the fulfillment consumer).
type Notifier interface {
	DirectMessage(ctx context.Context, buyerID, text string) error
}
