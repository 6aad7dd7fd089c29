package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

var ErrInvalidPrice = errors.New("invalid price")

// Product is a sellable ebook. The catalog is maintained externally;
// the bot only reads it. Title is the natural key (case-insensitive).
type Product struct {
	ID    int64
	Title string
	Price decimal.Decimal
}

// PriceMinorUnits returns the price in the currency's minor units
// (cents for USD), which is what the payment processor expects.
func (p Product) PriceMinorUnits() int64 {
	return p.Price.Mul(decimal.NewFromInt(100)).IntPart()
}

func (p Product) Validate() error {
	if p.Price.IsNegative() || p.Price.IsZero() {
		return ErrInvalidPrice
	}
	return nil
}

// Order ties a buyer to a product through a checkout session.
// Status only ever moves pending -> paid; orders are never deleted.
type Order struct {
	ID        int64
	BuyerID   string
	ProductID int64
	Status    Status
	SessionID string
}
