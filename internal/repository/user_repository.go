package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// FindRole 外部身份服务同步过来的角色
func (r *UserRepository) FindRole(ctx context.Context, userID uint) (model.UserRole, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Select("id", "role").First(&user, userID).Error; err != nil {
		return "", err
	}
	return user.Role, nil
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Update("last_seen", time.Now()).Error
}
