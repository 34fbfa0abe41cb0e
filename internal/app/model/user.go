package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleOwner    UserRole = "owner" // restaurant owner
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	Email             string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash      string         `gorm:"not null" json:"-"`
	DisplayName       string         `gorm:"not null" json:"display_name"`
	Phone             string         `json:"phone"`
	AvatarURL         string         `json:"avatar_url"`
	Role              UserRole       `gorm:"type:varchar(20);default:'customer'" json:"role"`
	PreferredLanguage string         `gorm:"type:varchar(10);default:'en'" json:"preferred_language"` // en or zh-HK
	FavoriteDistrict  string         `json:"favorite_district,omitempty"`
	ReferralCode      string         `gorm:"uniqueIndex;not null" json:"referral_code"`
	ReferredBy        *uint          `gorm:"index" json:"referred_by,omitempty"`
	TotalBookings     int            `gorm:"default:0" json:"total_bookings"`
	TotalSpent        float64        `gorm:"default:0" json:"total_spent"`   // HKD
	CreditBalance     float64        `gorm:"default:0" json:"credit_balance"` // HKD, refunds issued as credit
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"` // soft-deactivate, never hard-deleted

	Bookings []Booking `gorm:"foreignKey:UserID" json:"bookings,omitempty"`
	Reviews  []Review  `gorm:"foreignKey:UserID" json:"reviews,omitempty"`
}

func (User) TableName() string {
	return "users"
}
