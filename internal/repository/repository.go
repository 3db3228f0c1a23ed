package repository

import (
	"context"
	"errors"

	"media-store/internal/domain"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrTransactionNotFound = errors.New("payment transaction not found")
	ErrInvoiceExists       = errors.New("invoice already exists for order")
)

type ProductRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	HasStock(ctx context.Context, id uint64, qty int) (bool, error)
	// Reserve decrements stock atomically and fails with
	// *domain.InsufficientStockError when the decrement would go negative.
	Reserve(ctx context.Context, id uint64, qty int) error
	// Release increments stock unconditionally. Callers guard idempotency.
	Release(ctx context.Context, id uint64, qty int) error
}

type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	// FindByIDForUpdate takes a row lock for the enclosing transaction so
	// concurrent settle/cancel paths serialize on the order.
	FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error)
	FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
}

type DeliveryRepository interface {
	Save(ctx context.Context, info *domain.DeliveryInformation) error
}

type InvoiceRepository interface {
	// Create rejects a second invoice for the same order with ErrInvoiceExists.
	Create(ctx context.Context, invoice *domain.Invoice) error
	Save(ctx context.Context, invoice *domain.Invoice) error
	FindByOrderID(ctx context.Context, orderID uint64) (*domain.Invoice, error)
	// FindByOrderIDForUpdate takes a row lock so duplicate callback
	// deliveries block until the first settle commits.
	FindByOrderIDForUpdate(ctx context.Context, orderID uint64) (*domain.Invoice, error)
	FindByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Invoice, error)
}

type TransactionRepository interface {
	Save(ctx context.Context, txn *domain.PaymentTransaction) error
	FindByID(ctx context.Context, id string) (*domain.PaymentTransaction, error)
	// FindPendingByInvoiceID returns at most one row; creation rejects a
	// second pending attempt per invoice.
	FindPendingByInvoiceID(ctx context.Context, invoiceID uint64) (*domain.PaymentTransaction, error)
	FindSuccessfulByInvoiceID(ctx context.Context, invoiceID uint64) (*domain.PaymentTransaction, error)
}

// Store aggregates the repositories and the transaction boundary. InTx runs
// fn against a store bound to one database transaction; any error rolls the
// whole unit back.
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository
	Deliveries() DeliveryRepository
	Invoices() InvoiceRepository
	Transactions() TransactionRepository
	InTx(ctx context.Context, fn func(Store) error) error
}
