package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/delivery"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

// Inbound is one chat message as seen by the router. FromBot covers
// both our own messages and other bots; those are always ignored.
type Inbound struct {
	AuthorID string
	Content  string
	FromBot  bool
}

var greetings = map[string]struct{}{
	"hi": {}, "hii": {}, "hello": {}, "helo": {},
}

// Router classifies each message into exactly one intent and
// orchestrates catalog, ledger and payment gateway. It holds no
// per-conversation state and is safe under concurrent invocation.
type Router struct {
	catalog usecase.CatalogRepo
	orders  usecase.OrderRepo
	buy     *usecase.BuyEbook
	confirm *usecase.ConfirmPayment
	links   *delivery.Signer
	log     *slog.Logger
}

func NewRouter(catalog usecase.CatalogRepo, orders usecase.OrderRepo, buy *usecase.BuyEbook, confirm *usecase.ConfirmPayment, links *delivery.Signer, log *slog.Logger) *Router {
	return &Router{catalog: catalog, orders: orders, buy: buy, confirm: confirm, links: links, log: log}
}

// Handle produces a single reply for one inbound message, or "" when
// the message is not addressed to the bot. First matching intent wins.
func (r *Router) Handle(ctx context.Context, msg Inbound) string {
	if msg.FromBot {
		return ""
	}
	content := strings.ToLower(strings.TrimSpace(msg.Content))
	if content == "" {
		return ""
	}

	var cmd string
	var reply string
	start := time.Now()

	switch {
	case isGreeting(content):
		cmd, reply = "greet", replyGreeting
	case content == "!ebooks":
		cmd, reply = "ebooks", r.handleList(ctx)
	case content == "!buy" || strings.HasPrefix(content, "!buy "):
		arg := strings.TrimSpace(strings.TrimPrefix(content, "!buy"))
		cmd, reply = "buy", r.handleBuy(ctx, msg.AuthorID, arg)
	case content == "!paid" || strings.HasPrefix(content, "!paid "):
		arg := strings.TrimSpace(strings.TrimPrefix(content, "!paid"))
		cmd, reply = "paid", r.handleConfirm(ctx, msg.AuthorID, arg)
	case content == "!orders":
		cmd, reply = "orders", r.handleOrders(ctx, msg.AuthorID)
	default:
		return ""
	}

	commandsTotal.WithLabelValues(cmd).Inc()
	commandDuration.WithLabelValues(cmd).Observe(float64(time.Since(start).Milliseconds()))
	return reply
}

func isGreeting(content string) bool {
	_, ok := greetings[content]
	return ok
}

func (r *Router) handleList(ctx context.Context) string {
	items, err := r.catalog.ListAll(ctx)
	if err != nil {
		r.log.Warn("list catalog failed", "err", err)
		return replyUnavailable
	}
	if len(items) == 0 {
		return replyNoEbooks
	}

	var b strings.Builder
	b.WriteString("📚 Available Ebooks:\n")
	for _, p := range items {
		fmt.Fprintf(&b, "%d. %s → `!buy %s` - %s$\n", p.ID, p.Title, p.Title, p.Price.StringFixed(2))
	}
	b.WriteString("Enter `!buy <title>` to pick one!")
	return b.String()
}

func (r *Router) handleBuy(ctx context.Context, buyerID, title string) string {
	if title == "" {
		return replyBuyUsage
	}

	out, err := r.buy.Execute(ctx, usecase.BuyEbookInput{BuyerID: buyerID, Title: title})
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		return replyInvalidOption
	case errors.Is(err, usecase.ErrDuplicateSession):
		return replyInProgress
	case errors.Is(err, usecase.ErrUnavailable):
		r.log.Warn("buy: store unavailable", "buyer", buyerID, "title", title)
		return replyUnavailable
	case err != nil:
		r.log.Warn("buy failed", "buyer", buyerID, "title", title, "err", err)
		return replyPaymentError
	}

	return fmt.Sprintf("💳 Pay here for **%s** ebook: %s\nAfter payment, type `!paid %s`",
		out.ProductTitle, out.CheckoutURL, out.SessionID)
}

func (r *Router) handleConfirm(ctx context.Context, buyerID, sessionID string) string {
	if sessionID == "" {
		return replyPaidUsage
	}

	out, err := r.confirm.Execute(ctx, usecase.ConfirmPaymentInput{SessionID: sessionID})
	switch {
	case errors.Is(err, usecase.ErrUnknownOrder):
		return replyNoOrder
	case errors.Is(err, usecase.ErrNotFound):
		return replyInvalidSession
	case errors.Is(err, usecase.ErrTransient):
		r.log.Warn("confirm: gateway failed", "session", sessionID, "err", err)
		return replyPaymentError
	case errors.Is(err, usecase.ErrUnavailable):
		r.log.Warn("confirm: store unavailable", "session", sessionID)
		return replyUnavailable
	case err != nil:
		r.log.Warn("confirm failed", "session", sessionID, "err", err)
		return replyPaymentError
	}

	switch {
	case out.AlreadyPaid:
		link, err := r.links.SignedLink(out.Title, buyerID)
		if err != nil {
			r.log.Error("sign delivery link failed", "title", out.Title, "err", err)
			return replyPaymentError
		}
		return fmt.Sprintf("✅ This order was already paid earlier! Here's your **%s** ebook: %s", out.Title, link)
	case out.Completed:
		link, err := r.links.SignedLink(out.Title, buyerID)
		if err != nil {
			r.log.Error("sign delivery link failed", "title", out.Title, "err", err)
			return replyPaymentError
		}
		return fmt.Sprintf("✅ Payment verified and confirmed! Here is your **%s** ebook: %s", out.Title, link)
	default:
		return replyNotCompleted
	}
}

func (r *Router) handleOrders(ctx context.Context, buyerID string) string {
	items, err := r.orders.ListPaidForBuyer(ctx, buyerID)
	if err != nil {
		r.log.Warn("list orders failed", "buyer", buyerID, "err", err)
		return replyUnavailable
	}
	if len(items) == 0 {
		return replyNoPurchases
	}

	var b strings.Builder
	b.WriteString("📦 Your Purchased Ebooks:\n")
	for _, o := range items {
		link, err := r.links.SignedLink(o.Title, buyerID)
		if err != nil {
			r.log.Error("sign delivery link failed", "title", o.Title, "err", err)
			continue
		}
		fmt.Fprintf(&b, "- %s → %s\n", o.Title, link)
	}
	return strings.TrimRight(b.String(), "\n")
}
