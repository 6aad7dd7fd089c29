package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domain "github.com/istaaklogisquare-source/ebook-bot-clean/internal/entity"
)

type ConfirmPaymentInput struct {
	SessionID string
}

type ConfirmPaymentOutput struct {
	Title string
	// AlreadyPaid: the ledger had this order paid before this call.
	AlreadyPaid bool
	// Completed: the processor reported paid and the ledger was advanced.
	// AlreadyPaid and Completed both false means payment is still open.
	Completed bool
}

// ConfirmPayment reconciles the local order ledger against the external
// checkout session. The ledger is consulted first so repeated confirms
// short-circuit without an external call; the order only advances to
// paid on a fresh processor confirmation.
type ConfirmPayment struct {
	orders  OrderRepo
	gateway PaymentGateway
	events  EventPublisher
	log     *slog.Logger
}

func NewConfirmPayment(orders OrderRepo, gw PaymentGateway, events EventPublisher, log *slog.Logger) *ConfirmPayment {
	return &ConfirmPayment{orders: orders, gateway: gw, events: events, log: log}
}

func (uc *ConfirmPayment) Execute(ctx context.Context, in ConfirmPaymentInput) (ConfirmPaymentOutput, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return ConfirmPaymentOutput{}, ErrInvalidInput
	}

	rec, err := uc.orders.GetBySessionID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return ConfirmPaymentOutput{}, ErrUnknownOrder
	}
	if err != nil {
		return ConfirmPaymentOutput{}, err
	}

	if rec.Status == string(domain.StatusPaid) {
		return ConfirmPaymentOutput{Title: rec.Title, AlreadyPaid: true}, nil
	}

	status, err := uc.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return ConfirmPaymentOutput{}, fmt.Errorf("retrieve session: %w", err)
	}

	if status.PaymentStatus != "paid" {
		return ConfirmPaymentOutput{Title: rec.Title}, nil
	}

	// Gated on status='pending'; a concurrent confirm losing this race
	// is indistinguishable from AlreadyPaid, which is the point.
	updated, err := uc.orders.MarkPaid(ctx, sessionID)
	if err != nil {
		return ConfirmPaymentOutput{}, fmt.Errorf("mark paid: %w", err)
	}
	if !updated {
		return ConfirmPaymentOutput{Title: rec.Title, AlreadyPaid: true}, nil
	}

	// Best-effort event; the confirmation reply never waits on the broker.
	if err := uc.events.PublishOrderPaid(ctx, OrderPaidMsg{
		OrderID:   rec.ID,
		BuyerID:   rec.BuyerID,
		Title:     rec.Title,
		SessionID: sessionID,
	}); err != nil {
		uc.log.Warn("publish order.paid failed", "order", rec.ID, "session", sessionID, "err", err)
	}

	return ConfirmPaymentOutput{Title: rec.Title, Completed: true}, nil
}
