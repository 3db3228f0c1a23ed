package mysql

import (
	"context"
	"errors"
	"log"

	"media-store/internal/domain"
	"media-store/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepo struct {
	db *gorm.DB
}

// Create enforces the one-invoice-per-order rule with an explicit lookup in
// addition to the unique index, so duplicate creation surfaces as a domain
// error instead of a driver error.
func (r *invoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("order_id = ?", invoice.OrderID).
		Count(&count).Error; err != nil {
		log.Printf("invoice Create lookup error: %v", err)
		return err
	}
	if count > 0 {
		return repository.ErrInvoiceExists
	}
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		log.Printf("invoice Create error: %v", err)
		return err
	}
	return nil
}

func (r *invoiceRepo) Save(ctx context.Context, invoice *domain.Invoice) error {
	if err := r.db.WithContext(ctx).Save(invoice).Error; err != nil {
		log.Printf("invoice Save error: %v", err)
		return err
	}
	return nil
}

func (r *invoiceRepo) FindByOrderID(ctx context.Context, orderID uint64) (*domain.Invoice, error) {
	return r.findByOrderID(ctx, orderID, false)
}

// FindByOrderIDForUpdate locks the invoice row so a second callback delivery
// for the same payment waits for the first settle to commit.
func (r *invoiceRepo) FindByOrderIDForUpdate(ctx context.Context, orderID uint64) (*domain.Invoice, error) {
	return r.findByOrderID(ctx, orderID, true)
}

func (r *invoiceRepo) findByOrderID(ctx context.Context, orderID uint64, lock bool) (*domain.Invoice, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var inv domain.Invoice
	err := q.Where("order_id = ?", orderID).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrInvoiceNotFound
		}
		log.Printf("invoice findByOrderID error: %v", err)
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) FindByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Invoice, error) {
	var out []domain.Invoice
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", status).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		log.Printf("invoice FindByStatus error: %v", err)
		return nil, err
	}
	return out, nil
}
