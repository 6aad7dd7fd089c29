package bot_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/bot"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/delivery"
	domain "github.com/istaaklogisquare-source/ebook-bot-clean/internal/entity"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

// --- in-memory ports ---

type memCatalog struct {
	products []domain.Product
	err      error
}

func (m *memCatalog) FindByTitle(_ context.Context, title string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.products {
		if strings.EqualFold(m.products[i].Title, title) {
			return &m.products[i], nil
		}
	}
	return nil, usecase.ErrNotFound
}

func (m *memCatalog) ListAll(_ context.Context) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

type memOrders struct {
	records map[string]*usecase.OrderRecord
	// titles stands in for the products JOIN the real repo does.
	titles map[int64]string
	err    error
}

func (m *memOrders) CreatePending(_ context.Context, buyerID string, productID int64, sessionID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if _, dup := m.records[sessionID]; dup {
		return 0, usecase.ErrDuplicateSession
	}
	id := int64(len(m.records) + 1)
	m.records[sessionID] = &usecase.OrderRecord{
		ID: id, BuyerID: buyerID, ProductID: productID,
		Status: "pending", SessionID: sessionID, Title: m.titles[productID],
	}
	return id, nil
}

func (m *memOrders) GetBySessionID(_ context.Context, sessionID string) (*usecase.OrderRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[sessionID]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memOrders) MarkPaid(_ context.Context, sessionID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	rec, ok := m.records[sessionID]
	if !ok || rec.Status != "pending" {
		return false, nil
	}
	rec.Status = "paid"
	return true, nil
}

func (m *memOrders) ListPaidForBuyer(_ context.Context, buyerID string) ([]usecase.PaidOrder, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []usecase.PaidOrder{}
	for _, rec := range m.records {
		if rec.BuyerID == buyerID && rec.Status == "paid" {
			out = append(out, usecase.PaidOrder{OrderID: rec.ID, Title: rec.Title})
		}
	}
	return out, nil
}

type memGateway struct {
	nextID string
	status map[string]string
	err    error
}

func (m *memGateway) CreateCheckoutSession(_ context.Context, _ usecase.CheckoutInput) (*usecase.CheckoutSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &usecase.CheckoutSession{ID: m.nextID, URL: "https://stripe.test/" + m.nextID}, nil
}

func (m *memGateway) RetrieveSession(_ context.Context, sessionID string) (*usecase.SessionStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	st, ok := m.status[sessionID]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	return &usecase.SessionStatus{ID: sessionID, PaymentStatus: st}, nil
}

type openLock struct{}

func (openLock) TryLock(context.Context, string, string) (bool, error) { return true, nil }
func (openLock) Unlock(context.Context, string, string) error          { return nil }

type dropEvents struct{}

func (dropEvents) PublishOrderCreated(context.Context, usecase.OrderCreatedMsg) error { return nil }
func (dropEvents) PublishOrderPaid(context.Context, usecase.OrderPaidMsg) error       { return nil }

// --- harness ---

type world struct {
	router  *bot.Router
	catalog *memCatalog
	orders  *memOrders
	gateway *memGateway
}

func newWorld() *world {
	catalog := &memCatalog{products: []domain.Product{
		{ID: 1, Title: "golang-basics", Price: decimal.RequireFromString("9.99")},
		{ID: 2, Title: "mysql-deep-dive", Price: decimal.RequireFromString("14.50")},
	}}
	orders := &memOrders{
		records: map[string]*usecase.OrderRecord{},
		titles:  map[int64]string{1: "golang-basics", 2: "mysql-deep-dive"},
	}
	gateway := &memGateway{nextID: "cs_test_1", status: map[string]string{}}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	buy := usecase.NewBuyEbook(catalog, orders, gateway, openLock{}, dropEvents{}, usecase.CheckoutOptions{
		Currency:   "usd",
		SuccessURL: "http://localhost:8080/success",
		CancelURL:  "http://localhost:8080/cancel",
	}, log)
	confirm := usecase.NewConfirmPayment(orders, gateway, dropEvents{}, log)
	signer := delivery.NewSigner("http://localhost:8080", "test-secret", time.Hour)

	return &world{
		router:  bot.NewRouter(catalog, orders, buy, confirm, signer, log),
		catalog: catalog,
		orders:  orders,
		gateway: gateway,
	}
}

func (w *world) say(content string) string {
	return w.router.Handle(context.Background(), bot.Inbound{AuthorID: "u1", Content: content})
}

// --- tests ---

func TestHandle_Greeting(t *testing.T) {
	w := newWorld()
	for _, greeting := range []string{"hi", "Hello", "HII", "  helo  "} {
		reply := w.say(greeting)
		assert.Contains(t, reply, "!ebooks", "greeting %q", greeting)
	}
}

func TestHandle_IgnoresBotsAndNoise(t *testing.T) {
	w := newWorld()

	assert.Empty(t, w.router.Handle(context.Background(),
		bot.Inbound{AuthorID: "bot", Content: "hi", FromBot: true}))
	assert.Empty(t, w.say("what's up"))
	assert.Empty(t, w.say("!buyfoo"), "mistyped command must stay silent")
	assert.Empty(t, w.say(""))
}

func TestHandle_ListEbooks(t *testing.T) {
	w := newWorld()
	reply := w.say("!ebooks")

	assert.Contains(t, reply, "golang-basics")
	assert.Contains(t, reply, "mysql-deep-dive")
	assert.Contains(t, reply, "`!buy golang-basics`")
	assert.Contains(t, reply, "9.99$")
}

func TestHandle_ListEbooksEmptyCatalog(t *testing.T) {
	w := newWorld()
	w.catalog.products = nil
	assert.Contains(t, w.say("!ebooks"), "No ebooks available")
}

func TestHandle_BuyHappyPath(t *testing.T) {
	w := newWorld()
	reply := w.say("!buy golang-basics")

	assert.Contains(t, reply, "https://stripe.test/cs_test_1")
	assert.Contains(t, reply, "!paid cs_test_1")

	rec, ok := w.orders.records["cs_test_1"]
	require.True(t, ok)
	assert.Equal(t, "pending", rec.Status)
}

func TestHandle_BuyMissingTitle(t *testing.T) {
	w := newWorld()
	assert.Contains(t, w.say("!buy"), "provide an ebook title")
	assert.Contains(t, w.say("!buy   "), "provide an ebook title")
}

func TestHandle_BuyUnknownTitle(t *testing.T) {
	w := newWorld()
	assert.Equal(t, "Invalid ebook option.", w.say("!buy nonexistent"))
}

func TestHandle_BuyStoreDown(t *testing.T) {
	w := newWorld()
	w.catalog.err = usecase.ErrUnavailable
	assert.Contains(t, w.say("!buy golang-basics"), "temporarily unavailable")
}

func TestHandle_BuyGatewayDown(t *testing.T) {
	w := newWorld()
	w.gateway.err = usecase.ErrTransient
	assert.Contains(t, w.say("!buy golang-basics"), "payment service")
}

func TestHandle_PaidHappyPath(t *testing.T) {
	w := newWorld()
	w.say("!buy golang-basics")
	w.gateway.status["cs_test_1"] = "paid"

	reply := w.say("!paid cs_test_1")
	assert.Contains(t, reply, "Payment verified")
	assert.Contains(t, reply, "/files/golang-basics.pdf?token=")
	assert.Equal(t, "paid", w.orders.records["cs_test_1"].Status)
}

func TestHandle_PaidRepeatDeliversWithoutGateway(t *testing.T) {
	w := newWorld()
	w.say("!buy golang-basics")
	w.gateway.status["cs_test_1"] = "paid"
	w.say("!paid cs_test_1")

	// Gateway failures are now irrelevant; the ledger answers.
	w.gateway.err = usecase.ErrTransient
	reply := w.say("!paid cs_test_1")

	assert.Contains(t, reply, "already paid earlier")
	assert.Contains(t, reply, "/files/golang-basics.pdf?token=")
}

func TestHandle_PaidNotCompleted(t *testing.T) {
	w := newWorld()
	w.say("!buy golang-basics")
	w.gateway.status["cs_test_1"] = "unpaid"

	reply := w.say("!paid cs_test_1")
	assert.Contains(t, reply, "not completed")
	assert.Equal(t, "pending", w.orders.records["cs_test_1"].Status,
		"an unpaid session must never flip the order")
}

func TestHandle_PaidMissingSession(t *testing.T) {
	w := newWorld()
	assert.Contains(t, w.say("!paid"), "provide a session ID")
}

func TestHandle_PaidUnknownOrder(t *testing.T) {
	w := newWorld()
	assert.Contains(t, w.say("!paid cs_never_seen"), "No order found")
}

func TestHandle_PaidInvalidExternalSession(t *testing.T) {
	w := newWorld()
	w.say("!buy golang-basics")
	// The ledger has the order but the gateway rejects the session id.
	reply := w.say("!paid cs_test_1")
	assert.Contains(t, reply, "Invalid session ID")
}

func TestHandle_OrdersEmpty(t *testing.T) {
	w := newWorld()
	assert.Contains(t, w.say("!orders"), "not purchased")
}

func TestHandle_OrdersListsPaidWithLinks(t *testing.T) {
	w := newWorld()
	w.say("!buy golang-basics")
	w.gateway.status["cs_test_1"] = "paid"
	w.say("!paid cs_test_1")

	reply := w.say("!orders")
	assert.Contains(t, reply, "golang-basics")
	assert.Contains(t, reply, "/files/golang-basics.pdf?token=")
}

func TestHandle_CommandsAreCaseInsensitive(t *testing.T) {
	w := newWorld()
	assert.Contains(t, w.say("!EBOOKS"), "golang-basics")
	assert.Contains(t, w.say("!Buy golang-basics"), "stripe.test")
}
