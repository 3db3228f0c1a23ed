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

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		log.Printf("order Save error: %v", err)
		return err
	}
	if order.ID == 0 {
		return errors.New("failed to assign order ID")
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	return r.findByID(ctx, id, false)
}

// FindByIDForUpdate is the SELECT ... FOR UPDATE variant; only meaningful
// inside Store.InTx.
func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error) {
	return r.findByID(ctx, id, true)
}

func (r *orderRepo) findByID(ctx context.Context, id uint64, lock bool) (*domain.Order, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var o domain.Order
	err := q.
		Preload("Lines").
		Preload("Delivery").
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOrderNotFound
		}
		log.Printf("order findByID error: %v", err)
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		log.Printf("order FindByStatus error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) FindAll(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		log.Printf("order FindAll error: %v", err)
		return nil, err
	}
	return out, nil
}
