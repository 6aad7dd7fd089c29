package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

// PaymentStatusHandler feeds processor-side status events through the
// same reconciliation path the !paid command uses, so webhook-style
// confirmations and chat confirmations can never disagree.
type PaymentStatusHandler struct {
	confirm *usecase.ConfirmPayment
	log     *slog.Logger
}

func NewPaymentStatusHandler(confirm *usecase.ConfirmPayment, log *slog.Logger) *PaymentStatusHandler {
	return &PaymentStatusHandler{confirm: confirm, log: log}
}

func (h *PaymentStatusHandler) Handle(ctx context.Context, ev usecase.PaymentStatusMsg) error {
	if ev.PaymentStatus != "paid" {
		return nil
	}

	out, err := h.confirm.Execute(ctx, usecase.ConfirmPaymentInput{SessionID: ev.SessionID})
	switch {
	case errors.Is(err, usecase.ErrUnknownOrder), errors.Is(err, usecase.ErrInvalidInput):
		// No local order to advance; retrying cannot fix that.
		h.log.Warn("payment event for unknown session", "session", ev.SessionID)
		return nil
	case err != nil:
		return err
	}

	if out.Completed {
		h.log.Info("order reconciled from payment event", "session", ev.SessionID, "title", out.Title)
	}
	return nil
}
