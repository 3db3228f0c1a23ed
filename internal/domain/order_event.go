package domain

import "time"

type OrderCreatedEvent struct {
	OrderID       uint64    `json:"orderId"`
	ItemCount     int       `json:"itemCount"`
	TotalAfterTax int64     `json:"totalAfterTax"`
	CustomerEmail string    `json:"customerEmail"`
	CreatedAt     time.Time `json:"createdAt"`
}

type OrderCancelledEvent struct {
	OrderID     uint64    `json:"orderId"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelledAt"`
}

// PaymentConfirmedEvent is consumed by the notification service to send the
// payment-confirmation email.
type PaymentConfirmedEvent struct {
	OrderID       uint64    `json:"orderId"`
	InvoiceID     uint64    `json:"invoiceId"`
	TransactionID string    `json:"transactionId"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	CustomerEmail string    `json:"customerEmail"`
	PaidAt        time.Time `json:"paidAt"`
}
