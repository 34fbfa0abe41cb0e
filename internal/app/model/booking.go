package model

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // awaiting payment
	BookingStatusConfirmed BookingStatus = "confirmed" // fee paid
	BookingStatusCompleted BookingStatus = "completed" // visit happened
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// IsTerminal reports whether no further transition is possible from s.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded" // refunded as account credit
)

type Booking struct {
	ID              uint          `gorm:"primarykey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	RestaurantID    uint          `gorm:"not null;index" json:"restaurant_id"`
	TimeWindowID    uint          `gorm:"not null;index" json:"time_window_id"`
	PartySize       int           `gorm:"not null" json:"party_size"`
	BookingFee      float64       `gorm:"not null" json:"booking_fee"` // HKD, fixed at creation
	Status          BookingStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	SpecialRequests string        `gorm:"type:text" json:"special_requests,omitempty"`
	IdempotencyKey  string        `gorm:"type:varchar(64);uniqueIndex" json:"-"` // client-generated, guards against create retries

	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	PaymentProvider   string        `gorm:"type:varchar(50)" json:"payment_provider,omitempty"`
	PaymentIntentID   string        `gorm:"type:varchar(64);index" json:"payment_intent_id,omitempty"`
	PaymentApprovedAt *time.Time    `json:"payment_approved_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User       User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Restaurant Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	TimeWindow TimeWindow `gorm:"foreignKey:TimeWindowID" json:"time_window,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// AccountCredit is a ledger entry behind users.credit_balance. Cancellation
// refunds are issued as credit, never cash.
type AccountCredit struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	BookingID *uint     `gorm:"index" json:"booking_id,omitempty"`
	Amount    float64   `gorm:"not null" json:"amount"` // HKD, positive = credit issued
	Reason    string    `gorm:"type:varchar(50);not null" json:"reason"`
	CreatedAt time.Time `json:"created_at"`

	User    User     `gorm:"foreignKey:UserID" json:"-"`
	Booking *Booking `gorm:"foreignKey:BookingID" json:"-"`
}

func (AccountCredit) TableName() string {
	return "account_credits"
}
