package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type BuyEbookInput struct {
	BuyerID string
	Title   string
}

type BuyEbookOutput struct {
	SessionID    string
	CheckoutURL  string
	ProductTitle string
}

// CheckoutOptions are the fixed parts of every session this bot creates.
type CheckoutOptions struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

type BuyEbook struct {
	catalog CatalogRepo
	orders  OrderRepo
	gateway PaymentGateway
	lock    CheckoutLock
	events  EventPublisher
	opts    CheckoutOptions
	log     *slog.Logger
}

func NewBuyEbook(catalog CatalogRepo, orders OrderRepo, gw PaymentGateway, lock CheckoutLock, events EventPublisher, opts CheckoutOptions, log *slog.Logger) *BuyEbook {
	return &BuyEbook{catalog: catalog, orders: orders, gateway: gw, lock: lock, events: events, opts: opts, log: log}
}

func (uc *BuyEbook) Execute(ctx context.Context, in BuyEbookInput) (BuyEbookOutput, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return BuyEbookOutput{}, ErrInvalidInput
	}

	product, err := uc.catalog.FindByTitle(ctx, title)
	if err != nil {
		return BuyEbookOutput{}, err
	}

	// One in-flight checkout per buyer+title; the lock expires on its own.
	ok, lockErr := uc.lock.TryLock(ctx, in.BuyerID, product.Title)
	if lockErr == nil && !ok {
		return BuyEbookOutput{}, ErrDuplicateSession
	}
	locked := lockErr == nil

	session, err := uc.gateway.CreateCheckoutSession(ctx, CheckoutInput{
		ProductTitle: product.Title,
		UnitAmount:   product.PriceMinorUnits(),
		Currency:     uc.opts.Currency,
		SuccessURL:   uc.opts.SuccessURL,
		CancelURL:    uc.opts.CancelURL,
	})
	if err != nil {
		uc.release(ctx, locked, in.BuyerID, product.Title)
		return BuyEbookOutput{}, fmt.Errorf("create checkout session: %w", err)
	}

	orderID, err := uc.orders.CreatePending(ctx, in.BuyerID, product.ID, session.ID)
	if err != nil {
		uc.release(ctx, locked, in.BuyerID, product.Title)
		if errors.Is(err, ErrDuplicateSession) {
			return BuyEbookOutput{}, err
		}
		return BuyEbookOutput{}, fmt.Errorf("create pending order: %w", err)
	}

	// Best-effort event; never blocks the purchase.
	if err := uc.events.PublishOrderCreated(ctx, OrderCreatedMsg{
		OrderID:   orderID,
		BuyerID:   in.BuyerID,
		Title:     product.Title,
		SessionID: session.ID,
	}); err != nil {
		uc.log.Warn("publish order.created failed", "order", orderID, "session", session.ID, "err", err)
	}

	return BuyEbookOutput{
		SessionID:    session.ID,
		CheckoutURL:  session.URL,
		ProductTitle: product.Title,
	}, nil
}

// release frees the checkout lock after a failed attempt so the buyer
// can retry before the TTL runs out.
func (uc *BuyEbook) release(ctx context.Context, locked bool, buyerID, title string) {
	if !locked {
		return
	}
	if err := uc.lock.Unlock(ctx, buyerID, title); err != nil {
		uc.log.Warn("release checkout lock failed", "buyer", buyerID, "title", title, "err", err)
	}
}
