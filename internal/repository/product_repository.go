package repository

import (
	"context"
	"fmt"

	"sheet-sync-service/internal/models"
	"gorm.io/gorm"
)

// ProductRepository defines the interface for product data operations.
// Products use the composite (name, spec) natural key; price derivation is
// first-occurrence-wins, so an existing row is never repriced here.
type ProductRepository interface {
	// FindOrCreate resolves the product by (name, spec), creating it when
	// unseen. It reports whether a new row was created and fills in the id
	// of the resolved row.
	FindOrCreate(ctx context.Context, product *models.Product) (bool, error)
	GetByKey(ctx context.Context, key models.ProductKey) (*models.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindOrCreate(ctx context.Context, product *models.Product) (bool, error) {
	var existing models.Product
	err := r.db.WithContext(ctx).
		Where("name = ? AND spec = ?", product.Name, product.Spec).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
			return false, fmt.Errorf("failed to create product %s/%s: %w", product.Name, product.Spec, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load product %s/%s: %w", product.Name, product.Spec, err)
	}

	*product = existing
	return false, nil
}

func (r *productRepository) GetByKey(ctx context.Context, key models.ProductKey) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("name = ? AND spec = ?", key.Name, key.Spec).
		First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("product %s/%s not found", key.Name, key.Spec)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}
