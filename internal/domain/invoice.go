package domain

import (
	"errors"
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

var (
	ErrInvoiceAlreadyPaid    = errors.New("invoice is already paid")
	ErrTransactionNotSuccess = errors.New("transaction is not successful")
)

// InvalidPaymentTransitionError reports an invoice status change the ledger forbids.
type InvalidPaymentTransitionError struct {
	From PaymentStatus
	To   PaymentStatus
}

func (e *InvalidPaymentTransitionError) Error() string {
	return fmt.Sprintf("invalid payment transition from %s to %s", e.From, e.To)
}

// Invoice is the single payable record for an order. The order linkage is
// immutable once created.
type Invoice struct {
	ID            uint64        `json:"id" gorm:"column:invoice_id;primaryKey;autoIncrement"`
	OrderID       uint64        `json:"orderId" gorm:"not null;uniqueIndex"`
	Description   string        `json:"description" gorm:"type:text"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"type:enum('pending','paid','failed','refunded','cancelled');default:'pending';index"`
	PaymentMethod string        `json:"paymentMethod" gorm:"size:50"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" gorm:"autoCreateTime"`
}

func (Invoice) TableName() string { return "invoices" }

func NewInvoice(order *Order, description string) *Invoice {
	if description == "" {
		description = fmt.Sprintf("Invoice for order #%d containing %d item(s)",
			order.ID, order.TotalItemCount())
	}
	return &Invoice{
		OrderID:       order.ID,
		Description:   description,
		PaymentStatus: PaymentPending,
	}
}

func (i *Invoice) IsPaid() bool    { return i.PaymentStatus == PaymentPaid }
func (i *Invoice) IsPending() bool { return i.PaymentStatus == PaymentPending }

// MarkAsPaid promotes the invoice using exactly one successful transaction.
// PaidAt is non-nil iff the status is paid.
func (i *Invoice) MarkAsPaid(txn *PaymentTransaction, now time.Time) error {
	if i.IsPaid() {
		return ErrInvoiceAlreadyPaid
	}
	if txn == nil || txn.Status != TxnSuccess {
		return ErrTransactionNotSuccess
	}
	i.PaymentStatus = PaymentPaid
	i.PaymentMethod = txn.PaymentMethod
	paid := now
	i.PaidAt = &paid
	return nil
}

func (i *Invoice) MarkAsFailed() {
	i.PaymentStatus = PaymentFailed
}

func (i *Invoice) Refund() error {
	if i.PaymentStatus != PaymentPaid {
		return &InvalidPaymentTransitionError{From: i.PaymentStatus, To: PaymentRefunded}
	}
	i.PaymentStatus = PaymentRefunded
	return nil
}

type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnSuccess   TransactionStatus = "success"
	TxnFailed    TransactionStatus = "failed"
	TxnCancelled TransactionStatus = "cancelled"
	TxnRefunded  TransactionStatus = "refunded"
)

// PaymentTransaction is one attempt to settle an invoice through a gateway.
// At most one transaction per invoice may ever reach success.
type PaymentTransaction struct {
	ID            string            `json:"id" gorm:"column:transaction_id;primaryKey;size:36"`
	InvoiceID     uint64            `json:"invoiceId" gorm:"not null;index"`
	Amount        int64             `json:"amount" gorm:"not null"`
	Status        TransactionStatus `json:"status" gorm:"type:enum('pending','success','failed','cancelled','refunded');default:'pending';index"`
	PaymentMethod string            `json:"paymentMethod" gorm:"size:50"`
	GatewayTxnNo  string            `json:"gatewayTxnNo" gorm:"size:50"`
	BankCode      string            `json:"bankCode" gorm:"size:20"`
	FailureReason string            `json:"failureReason,omitempty"`
	CreatedAt     time.Time         `json:"createdAt" gorm:"autoCreateTime"`
	ProcessedAt   *time.Time        `json:"processedAt,omitempty"`
}

func (PaymentTransaction) TableName() string { return "payment_transactions" }

func (t *PaymentTransaction) IsPending() bool    { return t.Status == TxnPending }
func (t *PaymentTransaction) IsSuccessful() bool { return t.Status == TxnSuccess }

func (t *PaymentTransaction) MarkSuccess(gatewayTxnNo string, now time.Time) {
	t.Status = TxnSuccess
	t.GatewayTxnNo = gatewayTxnNo
	processed := now
	t.ProcessedAt = &processed
}

func (t *PaymentTransaction) MarkFailed(reason string, now time.Time) {
	t.Status = TxnFailed
	t.FailureReason = reason
	processed := now
	t.ProcessedAt = &processed
}
