package mysql

import (
	"context"
	"log"

	"media-store/internal/domain"

	"gorm.io/gorm"
)

type deliveryRepo struct {
	db *gorm.DB
}

func (r *deliveryRepo) Save(ctx context.Context, info *domain.DeliveryInformation) error {
	if err := r.db.WithContext(ctx).Save(info).Error; err != nil {
		log.Printf("delivery Save error: %v", err)
		return err
	}
	return nil
}
