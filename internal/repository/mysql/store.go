package mysql

import (
	"context"

	"media-store/internal/repository"

	"gorm.io/gorm"
)

// Store is the gorm-backed implementation of repository.Store. All
// repositories returned by one Store share its *gorm.DB, so a Store built
// inside InTx scopes every repository call to that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Products() repository.ProductRepository         { return &productRepo{db: s.db} }
func (s *Store) Orders() repository.OrderRepository             { return &orderRepo{db: s.db} }
func (s *Store) Deliveries() repository.DeliveryRepository      { return &deliveryRepo{db: s.db} }
func (s *Store) Invoices() repository.InvoiceRepository         { return &invoiceRepo{db: s.db} }
func (s *Store) Transactions() repository.TransactionRepository { return &transactionRepo{db: s.db} }

func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
