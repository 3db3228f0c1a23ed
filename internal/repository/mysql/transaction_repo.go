package mysql

import (
	"context"
	"errors"
	"log"

	"media-store/internal/domain"
	"media-store/internal/repository"

	"gorm.io/gorm"
)

type transactionRepo struct {
	db *gorm.DB
}

func (r *transactionRepo) Save(ctx context.Context, txn *domain.PaymentTransaction) error {
	if err := r.db.WithContext(ctx).Save(txn).Error; err != nil {
		log.Printf("transaction Save error: %v", err)
		return err
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, id string) (*domain.PaymentTransaction, error) {
	var txn domain.PaymentTransaction
	err := r.db.WithContext(ctx).Where("transaction_id = ?", id).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTransactionNotFound
		}
		log.Printf("transaction FindByID error: %v", err)
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepo) FindPendingByInvoiceID(ctx context.Context, invoiceID uint64) (*domain.PaymentTransaction, error) {
	return r.findByInvoiceAndStatus(ctx, invoiceID, domain.TxnPending)
}

func (r *transactionRepo) FindSuccessfulByInvoiceID(ctx context.Context, invoiceID uint64) (*domain.PaymentTransaction, error) {
	return r.findByInvoiceAndStatus(ctx, invoiceID, domain.TxnSuccess)
}

func (r *transactionRepo) findByInvoiceAndStatus(ctx context.Context, invoiceID uint64, status domain.TransactionStatus) (*domain.PaymentTransaction, error) {
	var txn domain.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND status = ?", invoiceID, status).
		Order("created_at DESC").
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTransactionNotFound
		}
		log.Printf("transaction findByInvoiceAndStatus error: %v", err)
		return nil, err
	}
	return &txn, nil
}
