package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rigsync/backend/internal/domain"
)

// maxSuffixQuery only considers well-formed codes so legacy values never break allocation
const maxSuffixQuery = `SELECT COALESCE(MAX(CAST(SUBSTRING(identifier_code FROM 4) AS INTEGER)), 0)
FROM catalog_products WHERE identifier_code ~ '^PSM[0-9]+$'`

// CatalogRepository implements domain.CatalogRepository using GORM
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.CatalogProduct, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	out := make([]domain.CatalogProduct, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (r *CatalogRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*domain.CatalogProduct, error) {
	var m ProductModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	p := m.toDomain()
	return &p, nil
}

func (r *CatalogRepository) FindProductsByIdentifierCode(ctx context.Context, code string) ([]domain.CatalogProduct, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).
		Where("identifier_code = ?", code).
		Order("created_at, id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CatalogProduct, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (r *CatalogRepository) MaxIdentifierSuffix(ctx context.Context) (int, error) {
	var highest int
	if err := r.db.WithContext(ctx).Raw(maxSuffixQuery).Scan(&highest).Error; err != nil {
		return 0, fmt.Errorf("failed to read max identifier code: %w", err)
	}
	return highest, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, product *domain.CatalogProduct) error {
	m := productFromDomain(product)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	product.ID = m.ID
	product.CreatedAt = m.CreatedAt
	return nil
}

// translate maps driver errors onto domain errors
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", domain.ErrDuplicateKey, err)
	}
	return err
}
