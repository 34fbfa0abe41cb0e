package repository

import (
	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByReferralCode(code string) (*model.User, error)
	Update(user *model.User) error
	IncrementBookingStats(tx *gorm.DB, id uint, spent float64) error
	AddCredit(tx *gorm.DB, credit *model.AccountCredit) error
	FindCreditsByUserID(userID uint) ([]model.AccountCredit, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		logger.Error("Failed to find user by ID in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	logger.Debug("Finding user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByReferralCode(code string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("referral_code = ?", code).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *model.User) error {
	if err := r.db.Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}
	return nil
}

// IncrementBookingStats bumps the lifetime counters when a booking is
// confirmed.
func (r *userRepository) IncrementBookingStats(tx *gorm.DB, id uint, spent float64) error {
	err := tx.Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_bookings": gorm.Expr("total_bookings + ?", 1),
			"total_spent":    gorm.Expr("total_spent + ?", spent),
		}).Error
	if err != nil {
		logger.Error("Failed to increment user booking stats in database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}

// AddCredit records a credit entry and bumps the user's balance inside the
// caller's transaction.
func (r *userRepository) AddCredit(tx *gorm.DB, credit *model.AccountCredit) error {
	logger.Debug("Adding account credit in database", map[string]interface{}{
		"user_id": credit.UserID,
		"amount":  credit.Amount,
		"reason":  credit.Reason,
	})

	if err := tx.Create(credit).Error; err != nil {
		logger.Error("Failed to create account credit in database", err, map[string]interface{}{
			"user_id": credit.UserID,
		})
		return err
	}

	err := tx.Model(&model.User{}).
		Where("id = ?", credit.UserID).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance + ?", credit.Amount)).Error
	if err != nil {
		logger.Error("Failed to update user credit balance in database", err, map[string]interface{}{
			"user_id": credit.UserID,
		})
		return err
	}
	return nil
}

func (r *userRepository) FindCreditsByUserID(userID uint) ([]model.AccountCredit, error) {
	var credits []model.AccountCredit
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&credits).Error
	if err != nil {
		logger.Error("Failed to find account credits in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return credits, nil
}
