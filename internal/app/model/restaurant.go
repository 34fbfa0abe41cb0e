package model

import (
	"time"

	"gorm.io/gorm"
)

type Restaurant struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	OwnerID       *uint          `gorm:"index" json:"owner_id,omitempty"`
	Name          string         `gorm:"not null;index" json:"name"`
	NameZh        string         `json:"name_zh,omitempty"` // traditional Chinese name
	Description   string         `gorm:"type:text" json:"description"`
	DescriptionZh string         `gorm:"type:text" json:"description_zh,omitempty"`
	CuisineType   string         `gorm:"type:varchar(50);not null;index" json:"cuisine_type"`
	Territory     string         `gorm:"type:varchar(50);not null;index" json:"territory"` // e.g. hong_kong_island, kowloon
	Address       string         `gorm:"type:text;not null" json:"address"`
	AddressZh     string         `gorm:"type:text" json:"address_zh,omitempty"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	Phone         string         `json:"phone"`
	Email         string         `json:"email"`
	Website       string         `json:"website,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	MaxPartySize  int            `gorm:"default:8" json:"max_party_size"`
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`
	IsVerified    bool           `gorm:"default:false" json:"is_verified"`
	AverageRating float64        `gorm:"default:0" json:"average_rating"` // arithmetic mean over all reviews
	TotalReviews  int            `gorm:"default:0" json:"total_reviews"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Owner       *User        `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	TimeWindows []TimeWindow `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"time_windows,omitempty"`
	Photos      []RestaurantPhoto `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

func (Restaurant) TableName() string {
	return "restaurants"
}

// RestaurantPhoto is an S3-backed photo attached to a restaurant.
type RestaurantPhoto struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	Key          string    `gorm:"not null" json:"key"` // S3 object key
	URL          string    `gorm:"not null" json:"url"`
	Caption      string    `json:"caption,omitempty"`
	IsFeatured   bool      `gorm:"default:false" json:"is_featured"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Restaurant Restaurant `gorm:"foreignKey:RestaurantID" json:"-"`
}

func (RestaurantPhoto) TableName() string {
	return "restaurant_photos"
}
