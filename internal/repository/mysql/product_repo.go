package mysql

import (
	"context"
	"errors"
	"log"

	"media-store/internal/domain"
	"media-store/internal/repository"

	"gorm.io/gorm"
)

type productRepo struct {
	db *gorm.DB
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProductNotFound
		}
		log.Printf("product FindByID error: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) HasStock(ctx context.Context, id uint64, qty int) (bool, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return p.HasStock(qty), nil
}

// Reserve is an atomic conditional decrement: the WHERE clause keeps two
// concurrent checkouts from driving quantity negative without any
// read-modify-write window.
func (r *productRepo) Reserve(ctx context.Context, id uint64, qty int) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("product_id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		log.Printf("product Reserve error: %v", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Zero rows means the product is missing or short on stock; a
		// follow-up read tells them apart.
		p, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return &domain.InsufficientStockError{ProductID: id, Requested: qty, Available: p.Quantity}
	}
	return nil
}

func (r *productRepo) Release(ctx context.Context, id uint64, qty int) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("product_id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		log.Printf("product Release error: %v", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrProductNotFound
	}
	return nil
}
