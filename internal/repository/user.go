package repository

import (
	"context"
	"errors"
	"time"

	"formstack/internal/cache"
	"formstack/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) (uint, error)
	GetCredentialVersion(ctx context.Context, id uint) (uint, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User")
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns (nil, nil) when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.CredentialVersion == 0 {
		user.CredentialVersion = 1
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes the profile columns. Password and credential version are left alone.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Model(user).
		Select("email", "username", "first_name", "last_name", "avatar", "updated_at").
		Updates(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// UpdatePassword stores a new hash and bumps the credential version, returning the new version.
func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) (uint, error) {
	var version uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"password":           hash,
			"credential_version": gorm.Expr("credential_version + 1"),
			"updated_at":         time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User")
		}
		return tx.Model(&models.User{}).Select("credential_version").Where("id = ?", id).Scan(&version).Error
	})
	if err != nil {
		return 0, wrapDBError(err)
	}
	cache.InvalidateCredentialVersion(ctx, id)
	return version, nil
}

// GetCredentialVersion is read on every authenticated request, so it goes through the cache.
func (r *userRepository) GetCredentialVersion(ctx context.Context, id uint) (uint, error) {
	var version uint
	err := cache.Aside(ctx, cache.CredentialVersionKey(id), &version, cache.CredentialVersionTTL, func() error {
		res := r.db.WithContext(ctx).Model(&models.User{}).Select("credential_version").Where("id = ?", id).Scan(&version)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}
