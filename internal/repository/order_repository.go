package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"sheet-sync-service/internal/models"
	"gorm.io/gorm"
)

// Cache TTL for order lookups by number.
const orderCacheTTL = 10 * time.Minute

const orderCachePrefix = "sheetsync:orders:"

// OrderRepository defines the interface for order data operations. Orders
// are created once and afterwards only field-patched; header, financial
// fields and items are immutable after first creation.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error)
	ExistsByOrderNo(ctx context.Context, orderNo string) (bool, error)
	// PatchFields updates the named mutable columns of an order row.
	PatchFields(ctx context.Context, orderNo string, fields map[string]interface{}) error
	List(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	ListAll(ctx context.Context) ([]models.Order, error)
}

type orderRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewOrderRepository creates a new order repository with optional Redis
// caching; a nil client degrades to database-only lookups.
func NewOrderRepository(db *gorm.DB, redisClient *redis.Client) OrderRepository {
	return &orderRepository{db: db, redis: redisClient}
}

func orderCacheKey(orderNo string) string {
	return orderCachePrefix + orderNo
}

func (r *orderRepository) invalidate(ctx context.Context, orderNo string) {
	if r.redis != nil {
		_ = r.redis.Del(ctx, orderCacheKey(orderNo)).Err()
	}
}

// Create creates the order row and its item rows in one transaction.
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return fmt.Errorf("failed to create order item %s: %w", items[i].Name, err)
			}
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx, order.OrderNo)
	return nil
}

func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	cacheKey := orderCacheKey(orderNo)
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var order models.Order
			if err := json.Unmarshal([]byte(val), &order); err == nil {
				return &order, nil
			}
		}
	}

	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.created_at ASC") }).
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("order %s not found", orderNo)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderNo, err)
	}

	if r.redis != nil {
		if data, err := json.Marshal(order); err == nil {
			r.redis.Set(ctx, cacheKey, data, orderCacheTTL)
		}
	}
	return &order, nil
}

func (r *orderRepository) ExistsByOrderNo(ctx context.Context, orderNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_no = ?", orderNo).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check order %s: %w", orderNo, err)
	}
	return count > 0, nil
}

func (r *orderRepository) PatchFields(ctx context.Context, orderNo string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_no = ?", orderNo).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to patch order %s: %w", orderNo, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order %s not found", orderNo)
	}
	r.invalidate(ctx, orderNo)
	return nil
}

func (r *orderRepository) List(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	err := query.Preload("Items").
		Order("ordered_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Order("ordered_at ASC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
