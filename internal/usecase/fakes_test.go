package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/istaaklogisquare-source/ebook-bot-clean/internal/entity"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

type fakeCatalog struct {
	products []domain.Product
	err      error
}

func (f *fakeCatalog) FindByTitle(_ context.Context, title string) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if strings.EqualFold(f.products[i].Title, title) {
			return &f.products[i], nil
		}
	}
	return nil, usecase.ErrNotFound
}

func (f *fakeCatalog) ListAll(_ context.Context) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type fakeOrders struct {
	records   map[string]*usecase.OrderRecord // by session id
	createErr error
	getErr    error
	markErr   error
	// markNoop simulates losing the pending->paid race: the UPDATE
	// matches zero rows even though this caller read a pending order.
	markNoop bool
	created  []string
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{records: map[string]*usecase.OrderRecord{}}
}

func (f *fakeOrders) CreatePending(_ context.Context, buyerID string, productID int64, sessionID string) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	if _, dup := f.records[sessionID]; dup {
		return 0, usecase.ErrDuplicateSession
	}
	id := int64(len(f.records) + 1)
	f.records[sessionID] = &usecase.OrderRecord{
		ID: id, BuyerID: buyerID, ProductID: productID,
		Status: "pending", SessionID: sessionID,
	}
	f.created = append(f.created, sessionID)
	return id, nil
}

func (f *fakeOrders) GetBySessionID(_ context.Context, sessionID string) (*usecase.OrderRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[sessionID]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, sessionID string) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.markNoop {
		return false, nil
	}
	rec, ok := f.records[sessionID]
	if !ok || rec.Status != "pending" {
		return false, nil
	}
	rec.Status = "paid"
	return true, nil
}

func (f *fakeOrders) ListPaidForBuyer(_ context.Context, buyerID string) ([]usecase.PaidOrder, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := []usecase.PaidOrder{}
	for _, rec := range f.records {
		if rec.BuyerID == buyerID && rec.Status == "paid" {
			out = append(out, usecase.PaidOrder{OrderID: rec.ID, Title: rec.Title})
		}
	}
	return out, nil
}

type fakeGateway struct {
	session     *usecase.CheckoutSession
	createErr   error
	status      map[string]string // session id -> payment status
	retrieveErr error
	retrieved   []string
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, _ usecase.CheckoutInput) (*usecase.CheckoutSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeGateway) RetrieveSession(_ context.Context, sessionID string) (*usecase.SessionStatus, error) {
	f.retrieved = append(f.retrieved, sessionID)
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	st, ok := f.status[sessionID]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	return &usecase.SessionStatus{ID: sessionID, PaymentStatus: st}, nil
}

type fakeLock struct {
	held map[string]bool
	err  error
}

func (f *fakeLock) TryLock(_ context.Context, buyerID, title string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := buyerID + ":" + title
	if f.held == nil {
		f.held = map[string]bool{}
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLock) Unlock(_ context.Context, buyerID, title string) error {
	delete(f.held, buyerID+":"+title)
	return nil
}

type fakeEvents struct {
	created []usecase.OrderCreatedMsg
	paid    []usecase.OrderPaidMsg
	err     error
}

func (f *fakeEvents) PublishOrderCreated(_ context.Context, msg usecase.OrderCreatedMsg) error {
	f.created = append(f.created, msg)
	return f.err
}

func (f *fakeEvents) PublishOrderPaid(_ context.Context, msg usecase.OrderPaidMsg) error {
	f.paid = append(f.paid, msg)
	return f.err
}

func product(id int64, title, price string) domain.Product {
	return domain.Product{ID: id, Title: title, Price: decimal.RequireFromString(price)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func catalogFixture() []domain.Product {
	return []domain.Product{
		product(1, "golang-basics", "9.99"),
		product(2, "mysql-deep-dive", "14.50"),
	}
}
