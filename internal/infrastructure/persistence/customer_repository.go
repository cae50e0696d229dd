package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/shared"
	"github.com/erp/connector/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements commerce.CustomerRepository using GORM
type GormCustomerRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ commerce.CustomerRepository = (*GormCustomerRepository)(nil)

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db, now: time.Now}
}

// FindByID finds a customer by its id
func (r *GormCustomerRepository) FindByID(ctx context.Context, id commerce.CustomerID) (*commerce.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).Preload("Meta").First(&model, "id = ?", int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save replaces the customer's metadata
func (r *GormCustomerRepository) Save(ctx context.Context, customer *commerce.Customer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CustomerModel{}).
			Where("id = ?", int64(customer.ID)).
			Update("updated_at", r.now())
		if result.Error != nil {
			return fmt.Errorf("failed to update customer: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Where("customer_id = ?", int64(customer.ID)).Delete(&models.CustomerMetaModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear customer metadata: %w", err)
		}
		if meta := models.CustomerMetaModels(int64(customer.ID), customer.Meta); len(meta) > 0 {
			if err := tx.Create(&meta).Error; err != nil {
				return fmt.Errorf("failed to write customer metadata: %w", err)
			}
		}
		return nil
	})
}

// Create inserts a customer with its metadata
func (r *GormCustomerRepository) Create(ctx context.Context, customer *commerce.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	customer.ID = commerce.CustomerID(model.ID)
	return nil
}
