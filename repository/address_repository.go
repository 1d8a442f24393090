package repository

import (
	"context"

	"checkout-service/models"

	"gorm.io/gorm"
)

// AddressRepository defines the interface for the customer address book.
type AddressRepository interface {
	FindByUserID(ctx context.Context, userID string) ([]models.Address, error)
	Create(ctx context.Context, address *models.Address) error
}

// GormAddressRepository implements AddressRepository using GORM.
type GormAddressRepository struct {
	db *gorm.DB
}

func NewGormAddressRepository(db *gorm.DB) AddressRepository {
	return &GormAddressRepository{db: db}
}

func (r *GormAddressRepository) FindByUserID(ctx context.Context, userID string) ([]models.Address, error) {
	var addresses []models.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *GormAddressRepository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}
