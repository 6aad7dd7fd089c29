package usecase

// Published to RabbitMQ when a checkout session is opened.
type OrderCreatedMsg struct {
	OrderID   int64  `json:"orderId"`
	BuyerID   string `json:"buyerId"`
	Title     string `json:"title"`
	SessionID string `json:"sessionId"`
}

// Published to RabbitMQ after the ledger advances to paid.
type OrderPaidMsg struct {
	OrderID   int64  `json:"orderId"`
	BuyerID   string `json:"buyerId"`
	Title     string `json:"title"`
	SessionID string `json:"sessionId"`
}

// Received on Kafka from the payment-status mirror feed.
type PaymentStatusMsg struct {
	SessionID     string `json:"sessionId"`
	PaymentStatus string `json:"paymentStatus"` // e.g. "paid"
}
