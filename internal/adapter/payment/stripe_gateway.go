package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

// StripeGateway is the thin call boundary to Stripe Checkout. It owns
// no retry policy; failures map to the usecase error taxonomy and the
// router tells the user to try again.
type StripeGateway struct{}

func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(in.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(in.ProductTitle),
				},
				UnitAmount: stripe.Int64(in.UnitAmount),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, mapStripeErr(err)
	}
	return &usecase.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*usecase.SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, mapStripeErr(err)
	}
	return &usecase.SessionStatus{ID: s.ID, PaymentStatus: string(s.PaymentStatus)}, nil
}

func mapStripeErr(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeInvalidRequest {
		return fmt.Errorf("%w: %s", usecase.ErrNotFound, se.Code)
	}
	return fmt.Errorf("%w: %v", usecase.ErrTransient, err)
}

var _ usecase.PaymentGateway = (*StripeGateway)(nil)
