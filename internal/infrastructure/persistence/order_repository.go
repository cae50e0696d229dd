package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/shared"
	"github.com/erp/connector/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements commerce.OrderRepository using GORM
type GormOrderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ commerce.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db, now: time.Now}
}

// withAssociations loads what the export needs: items in id order, coupons
// in position order and all metadata. Notes are write-only for the connector.
func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Coupons", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Meta")
}

// FindUnexportedByStatuses returns orders in one of statuses without the
// export marker, ordered by id
func (r *GormOrderRepository) FindUnexportedByStatuses(ctx context.Context, statuses []commerce.Status) ([]*commerce.Order, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var orderModels []models.OrderModel
	err := withAssociations(r.db.WithContext(ctx)).
		Where("status IN ?", values).
		Where(`NOT EXISTS (
			SELECT 1 FROM order_meta m
			WHERE m.order_id = orders.id AND m.meta_key = ? AND m.meta_value = ?
		)`, commerce.MetaExported, commerce.ExportedFlag).
		Order("id ASC").
		Find(&orderModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]*commerce.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders, nil
}

// FindByID finds an order by its id
func (r *GormOrderRepository) FindByID(ctx context.Context, id commerce.OrderID) (*commerce.Order, error) {
	var model models.OrderModel
	if err := withAssociations(r.db.WithContext(ctx)).First(&model, "id = ?", int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SearchLatest returns the most recent order whose number equals term, or
// failing that the most recent whose number contains it
func (r *GormOrderRepository) SearchLatest(ctx context.Context, term string) (*commerce.Order, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, shared.ErrNotFound
	}

	var model models.OrderModel
	err := withAssociations(r.db.WithContext(ctx)).
		Where("number = ?", term).
		Order("id DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = withAssociations(r.db.WithContext(ctx)).
			Where("number LIKE ? ESCAPE '\\'", "%"+escapeLike(term)+"%").
			Order("id DESC").
			First(&model).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists the status, replaces the metadata and appends pending notes
// in one transaction
func (r *GormOrderRepository) Save(ctx context.Context, order *commerce.Order) error {
	now := r.now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrderModel{}).
			Where("id = ?", int64(order.ID)).
			Updates(map[string]any{
				"status":     string(order.Status),
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Where("order_id = ?", int64(order.ID)).Delete(&models.OrderMetaModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear order metadata: %w", err)
		}
		if meta := models.OrderMetaModels(int64(order.ID), order.Meta); len(meta) > 0 {
			if err := tx.Create(&meta).Error; err != nil {
				return fmt.Errorf("failed to write order metadata: %w", err)
			}
		}

		notes := order.PendingNotes()
		if len(notes) > 0 {
			rows := make([]models.OrderNoteModel, len(notes))
			for i, n := range notes {
				rows[i] = models.OrderNoteModel{OrderID: int64(order.ID), Content: n.Content, CreatedAt: n.CreatedAt}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to write order notes: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.ClearPendingNotes()
	return nil
}

// Create inserts an order with its items, coupons and metadata
func (r *GormOrderRepository) Create(ctx context.Context, order *commerce.Order) error {
	model := models.OrderModelFromDomain(order)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = r.now()
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.ID = commerce.OrderID(model.ID)
	return nil
}

// Notes returns the stored notes of an order, oldest first
func (r *GormOrderRepository) Notes(ctx context.Context, id commerce.OrderID) ([]commerce.Note, error) {
	var rows []models.OrderNoteModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", int64(id)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	notes := make([]commerce.Note, len(rows))
	for i, row := range rows {
		notes[i] = commerce.Note{ID: row.ID, Content: row.Content, CreatedAt: row.CreatedAt}
	}
	return notes, nil
}

// escapeLike escapes LIKE wildcards in a user supplied term
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
