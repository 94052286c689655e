package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperr "time-bank.com/time-bank/internal/errors"
	model "time-bank.com/time-bank/internal/models"
)

// UserRepository is the user-record store and the only writer of
// time_balance. Balance changes are optimistic read-modify-writes guarded by
// the row version.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.TimeBalance.IsNegative() {
		return fmt.Errorf("user %s: %w", user.ID, apperr.ErrInsufficientBalance)
	}
	user.Version = 1

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: user %s already exists", apperr.ErrInvalidInput, user.ID)
		}
		return translate(err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, apperr.ErrUserNotFound)
		}
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.TimeBalance, nil
}

// Credit adds a positive amount and returns the new balance.
func (r *UserRepository) Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("credit %s: %w", amount, apperr.ErrInvalidHours)
	}
	return r.adjust(ctx, userID, amount)
}

// Debit subtracts a positive amount, failing with ErrInsufficientBalance
// rather than letting the balance go below zero.
func (r *UserRepository) Debit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("debit %s: %w", amount, apperr.ErrInvalidHours)
	}
	return r.adjust(ctx, userID, amount.Neg())
}

func (r *UserRepository) adjust(ctx context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	next := user.TimeBalance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, fmt.Errorf(
			"user %s has %s hours, needs %s: %w",
			userID, user.TimeBalance, delta.Neg(), apperr.ErrInsufficientBalance,
		)
	}

	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]interface{}{
			"time_balance": next,
			"version":      gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return decimal.Zero, translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return decimal.Zero, fmt.Errorf("user %s: %w", userID, apperr.ErrStoreConflict)
	}

	return next, nil
}

func (r *UserRepository) SetPushToken(ctx context.Context, userID, token string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("push_token", token)

	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, apperr.ErrUserNotFound)
	}
	return nil
}

// UpdateProfile writes the profile fields of user. Balance and version are
// left alone so a concurrent credit is never lost.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).Model(&model.User{ID: user.ID}).
		Select("name", "description", "location", "skill_sets", "availability", "avatar_url", "is_profile_complete").
		Updates(user)

	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", user.ID, apperr.ErrUserNotFound)
	}
	return nil
}
