package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

type RestaurantSort string

const (
	RestaurantSortRating    RestaurantSort = "rating"
	RestaurantSortDiscount  RestaurantSort = "discount"
	RestaurantSortCreatedAt RestaurantSort = "created_at"
)

type RestaurantFilter struct {
	Territory      string
	CuisineType    string
	Search         string
	MinDiscount    int
	AvailableOn    *time.Time
	SortBy         RestaurantSort
	SortAscending  bool
	Limit          int
	Offset         int
	IncludeWindows bool
}

type RestaurantRepository interface {
	Create(restaurant *model.Restaurant) error
	FindByID(id uint) (*model.Restaurant, error)
	FindWithFilter(filter RestaurantFilter) ([]model.Restaurant, error)
	FindByOwnerID(ownerID uint) ([]model.Restaurant, error)
	ListTerritories() ([]string, error)
	ListCuisines() ([]string, error)
	Update(restaurant *model.Restaurant) error
	UpdateRating(tx *gorm.DB, id uint, averageRating float64, totalReviews int) error
	Delete(id uint) error
	AddPhoto(photo *model.RestaurantPhoto) error
	FindPhotoByID(photoID uint) (*model.RestaurantPhoto, error)
	DeletePhoto(photoID uint) error
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) baseQuery(includeWindows bool) *gorm.DB {
	query := r.db.Model(&model.Restaurant{}).Preload("Photos")
	if includeWindows {
		query = query.Preload("TimeWindows", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("date ASC, start_time ASC")
		})
	}
	return query
}

func (r *restaurantRepository) Create(restaurant *model.Restaurant) error {
	logger.Debug("Creating restaurant in database", map[string]interface{}{
		"name":      restaurant.Name,
		"territory": restaurant.Territory,
	})

	if err := r.db.Create(restaurant).Error; err != nil {
		logger.Error("Failed to create restaurant in database", err, map[string]interface{}{
			"name": restaurant.Name,
		})
		return err
	}

	logger.Debug("Restaurant created in database", map[string]interface{}{
		"restaurant_id": restaurant.ID,
		"name":          restaurant.Name,
	})
	return nil
}

func (r *restaurantRepository) FindByID(id uint) (*model.Restaurant, error) {
	logger.Debug("Finding restaurant by ID in database", map[string]interface{}{
		"restaurant_id": id,
	})

	var restaurant model.Restaurant
	if err := r.baseQuery(true).First(&restaurant, id).Error; err != nil {
		logger.Error("Failed to find restaurant by ID in database", err, map[string]interface{}{
			"restaurant_id": id,
		})
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) FindWithFilter(filter RestaurantFilter) ([]model.Restaurant, error) {
	logger.Debug("Finding restaurants with filter", map[string]interface{}{
		"territory":    filter.Territory,
		"cuisine_type": filter.CuisineType,
		"search":       filter.Search,
		"min_discount": filter.MinDiscount,
		"sort_by":      filter.SortBy,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})

	query := r.baseQuery(filter.IncludeWindows).Where("restaurants.is_active = ?", true)

	// Best live discount per restaurant, for filtering and sorting.
	discountSubquery := r.db.Table("time_windows").
		Select("time_windows.restaurant_id, MAX(time_windows.discount_percentage) AS max_discount").
		Where("time_windows.is_active = ? AND time_windows.current_bookings < time_windows.max_capacity", true).
		Group("time_windows.restaurant_id")

	query = query.Joins("LEFT JOIN (?) AS discounts ON discounts.restaurant_id = restaurants.id", discountSubquery)
	query = query.Select("restaurants.*, COALESCE(discounts.max_discount, 0) AS max_discount")

	if filter.Territory != "" {
		query = query.Where("restaurants.territory = ?", filter.Territory)
	}

	if filter.CuisineType != "" {
		query = query.Where("restaurants.cuisine_type = ?", filter.CuisineType)
	}

	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", filter.Search)
		query = query.Where("restaurants.name LIKE ? OR restaurants.name_zh LIKE ? OR restaurants.description LIKE ?",
			like, like, like)
	}

	if filter.MinDiscount > 0 {
		query = query.Where("COALESCE(discounts.max_discount, 0) >= ?", filter.MinDiscount)
	}

	if filter.AvailableOn != nil {
		query = query.Where("EXISTS (SELECT 1 FROM time_windows tw WHERE tw.restaurant_id = restaurants.id"+
			" AND tw.date = ? AND tw.is_active = ? AND tw.current_bookings < tw.max_capacity)",
			*filter.AvailableOn, true)
	}

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}
	switch filter.SortBy {
	case RestaurantSortDiscount:
		query = query.Order("COALESCE(discounts.max_discount, 0) " + direction)
		query = query.Order("restaurants.average_rating DESC")
	case RestaurantSortCreatedAt:
		query = query.Order("restaurants.created_at " + direction)
	case RestaurantSortRating:
		fallthrough
	default:
		query = query.Order("restaurants.average_rating " + direction)
		query = query.Order("restaurants.total_reviews DESC")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var restaurants []model.Restaurant
	if err := query.Find(&restaurants).Error; err != nil {
		logger.Error("Failed to find restaurants with filter", err, map[string]interface{}{
			"territory": filter.Territory,
			"search":    filter.Search,
		})
		return nil, err
	}

	logger.Debug("Restaurants found with filter", map[string]interface{}{
		"count": len(restaurants),
	})
	return restaurants, nil
}

func (r *restaurantRepository) FindByOwnerID(ownerID uint) ([]model.Restaurant, error) {
	var restaurants []model.Restaurant
	if err := r.baseQuery(true).Where("owner_id = ?", ownerID).Find(&restaurants).Error; err != nil {
		logger.Error("Failed to find restaurants by owner in database", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}
	return restaurants, nil
}

func (r *restaurantRepository) ListTerritories() ([]string, error) {
	var territories []string
	err := r.db.Model(&model.Restaurant{}).
		Where("is_active = ?", true).
		Distinct("territory").
		Order("territory ASC").
		Pluck("territory", &territories).Error
	if err != nil {
		logger.Error("Failed to list territories in database", err, nil)
		return nil, err
	}
	return territories, nil
}

func (r *restaurantRepository) ListCuisines() ([]string, error) {
	var cuisines []string
	err := r.db.Model(&model.Restaurant{}).
		Where("is_active = ?", true).
		Distinct("cuisine_type").
		Order("cuisine_type ASC").
		Pluck("cuisine_type", &cuisines).Error
	if err != nil {
		logger.Error("Failed to list cuisines in database", err, nil)
		return nil, err
	}
	return cuisines, nil
}

func (r *restaurantRepository) Update(restaurant *model.Restaurant) error {
	if err := r.db.Save(restaurant).Error; err != nil {
		logger.Error("Failed to update restaurant in database", err, map[string]interface{}{
			"restaurant_id": restaurant.ID,
		})
		return err
	}
	return nil
}

// UpdateRating writes the recomputed aggregate inside the caller's
// transaction so the rating never drifts from the review rows.
func (r *restaurantRepository) UpdateRating(tx *gorm.DB, id uint, averageRating float64, totalReviews int) error {
	err := tx.Model(&model.Restaurant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": averageRating,
			"total_reviews":  totalReviews,
		}).Error
	if err != nil {
		logger.Error("Failed to update restaurant rating in database", err, map[string]interface{}{
			"restaurant_id": id,
		})
		return err
	}
	return nil
}

func (r *restaurantRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Restaurant{}, id).Error; err != nil {
		logger.Error("Failed to delete restaurant in database", err, map[string]interface{}{
			"restaurant_id": id,
		})
		return err
	}
	return nil
}

func (r *restaurantRepository) AddPhoto(photo *model.RestaurantPhoto) error {
	if err := r.db.Create(photo).Error; err != nil {
		logger.Error("Failed to add restaurant photo in database", err, map[string]interface{}{
			"restaurant_id": photo.RestaurantID,
		})
		return err
	}
	return nil
}

func (r *restaurantRepository) FindPhotoByID(photoID uint) (*model.RestaurantPhoto, error) {
	var photo model.RestaurantPhoto
	if err := r.db.First(&photo, photoID).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *restaurantRepository) DeletePhoto(photoID uint) error {
	if err := r.db.Delete(&model.RestaurantPhoto{}, photoID).Error; err != nil {
		logger.Error("Failed to delete restaurant photo in database", err, map[string]interface{}{
			"photo_id": photoID,
		})
		return err
	}
	return nil
}
