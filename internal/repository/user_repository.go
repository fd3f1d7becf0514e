package repository

import (
	"context"
	"fmt"

	"sheet-sync-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations. Users are
// upserted by their natural phone key.
type UserRepository interface {
	// Upsert creates the user on first sighting or merges new fields into
	// the existing row. It reports whether a new row was created.
	Upsert(ctx context.Context, user *models.User) (bool, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) (bool, error) {
	var existing models.User
	err := r.db.WithContext(ctx).Where("phone = ?", user.Phone).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
			return false, fmt.Errorf("failed to create user %s: %w", user.Phone, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user %s: %w", user.Phone, err)
	}

	existing.MergeFrom(user)
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return false, fmt.Errorf("failed to update user %s: %w", user.Phone, err)
	}
	*user = existing
	return false, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("user with phone %s not found", phone)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
