package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/delivery"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

// FulfillmentHandler consumes order.paid events and DMs the buyer a
// signed download link. Re-sending the same link on redelivery is
// harmless, so the handler stays idempotent without extra state.
type FulfillmentHandler struct {
	links    *delivery.Signer
	notifier usecase.Notifier
	log      *slog.Logger
}

func NewFulfillmentHandler(links *delivery.Signer, notifier usecase.Notifier, log *slog.Logger) JSONHandler[usecase.OrderPaidMsg] {
	h := &FulfillmentHandler{links: links, notifier: notifier, log: log}
	return JSONHandler[usecase.OrderPaidMsg]{HandleFunc: h.handle}
}

func (h *FulfillmentHandler) handle(ctx context.Context, msg usecase.OrderPaidMsg) error {
	link, err := h.links.SignedLink(msg.Title, msg.BuyerID)
	if err != nil {
		// Signing only fails on config problems; requeueing won't help.
		h.log.Error("sign delivery link failed", "order", msg.OrderID, "err", err)
		return nil
	}

	content := fmt.Sprintf("🎉 Thanks for your purchase! Download **%s** here: %s", msg.Title, link)
	if err := h.notifier.DirectMessage(ctx, msg.BuyerID, content); err != nil {
		return fmt.Errorf("dm buyer %s: %w", msg.BuyerID, err)
	}

	h.log.Info("fulfillment delivered", "order", msg.OrderID, "buyer", msg.BuyerID)
	return nil
}
