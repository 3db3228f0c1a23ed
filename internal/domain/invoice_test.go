package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewInvoice(t *testing.T) {
	order := &Order{
		ID:    42,
		Lines: []OrderLine{{Quantity: 2}, {Quantity: 1}},
	}

	invoice := NewInvoice(order, "")
	assert.Equal(t, uint64(42), invoice.OrderID)
	assert.Equal(t, PaymentPending, invoice.PaymentStatus)
	assert.Contains(t, invoice.Description, "order #42")
	assert.Contains(t, invoice.Description, "3 item(s)")

	custom := NewInvoice(order, "gift wrap order")
	assert.Equal(t, "gift wrap order", custom.Description)
}

func TestInvoice_MarkAsPaid(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		invoice *Invoice
		txn     *PaymentTransaction
		wantErr error
	}{
		{
			name:    "successful transaction settles",
			invoice: &Invoice{PaymentStatus: PaymentPending},
			txn:     &PaymentTransaction{Status: TxnSuccess, PaymentMethod: "VNPAY"},
		},
		{
			name:    "already paid",
			invoice: &Invoice{PaymentStatus: PaymentPaid},
			txn:     &PaymentTransaction{Status: TxnSuccess},
			wantErr: ErrInvoiceAlreadyPaid,
		},
		{
			name:    "nil transaction",
			invoice: &Invoice{PaymentStatus: PaymentPending},
			wantErr: ErrTransactionNotSuccess,
		},
		{
			name:    "pending transaction cannot settle",
			invoice: &Invoice{PaymentStatus: PaymentPending},
			txn:     &PaymentTransaction{Status: TxnPending},
			wantErr: ErrTransactionNotSuccess,
		},
		{
			name:    "failed transaction cannot settle",
			invoice: &Invoice{PaymentStatus: PaymentPending},
			txn:     &PaymentTransaction{Status: TxnFailed},
			wantErr: ErrTransactionNotSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.invoice.MarkAsPaid(tt.txn, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.invoice.IsPaid())
			assert.Equal(t, "VNPAY", tt.invoice.PaymentMethod)
			if assert.NotNil(t, tt.invoice.PaidAt) {
				assert.Equal(t, now, *tt.invoice.PaidAt)
			}
		})
	}
}

func TestInvoice_Refund(t *testing.T) {
	paid := &Invoice{PaymentStatus: PaymentPaid}
	assert.NoError(t, paid.Refund())
	assert.Equal(t, PaymentRefunded, paid.PaymentStatus)

	for _, status := range []PaymentStatus{PaymentPending, PaymentFailed, PaymentRefunded, PaymentCancelled} {
		invoice := &Invoice{PaymentStatus: status}
		err := invoice.Refund()
		var transition *InvalidPaymentTransitionError
		assert.ErrorAs(t, err, &transition)
		assert.Equal(t, status, transition.From)
		assert.Equal(t, PaymentRefunded, transition.To)
	}
}

func TestPaymentTransaction_Transitions(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 30, 0, 0, time.UTC)

	txn := &PaymentTransaction{ID: "txn-1", Status: TxnPending}
	assert.True(t, txn.IsPending())

	txn.MarkSuccess("14421780", now)
	assert.True(t, txn.IsSuccessful())
	assert.Equal(t, "14421780", txn.GatewayTxnNo)
	if assert.NotNil(t, txn.ProcessedAt) {
		assert.Equal(t, now, *txn.ProcessedAt)
	}

	failed := &PaymentTransaction{ID: "txn-2", Status: TxnPending}
	failed.MarkFailed("gateway response 24", now)
	assert.Equal(t, TxnFailed, failed.Status)
	assert.Equal(t, "gateway response 24", failed.FailureReason)
	assert.NotNil(t, failed.ProcessedAt)
}
