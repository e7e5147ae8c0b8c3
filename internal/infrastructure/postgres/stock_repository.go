package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rigsync/backend/internal/domain"
)

// StockRepository implements domain.StockRepository using GORM
type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) FindStock(ctx context.Context, userID, companyID, productID uuid.UUID) (*domain.StockRecord, error) {
	var m StockModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ? AND product_id = ?", userID, companyID, productID).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStockNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *StockRepository) CreateStock(ctx context.Context, record *domain.StockRecord) error {
	m := stockFromDomain(record)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	record.ID = m.ID
	return nil
}

func (r *StockRepository) UpdateStock(ctx context.Context, record *domain.StockRecord) error {
	result := r.db.WithContext(ctx).
		Model(&StockModel{ID: record.ID}).
		Updates(map[string]interface{}{
			"quantity":   record.Quantity,
			"price":      record.Price,
			"updated_at": record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}
