package service

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
	"github.com/beforepeak/beforepeak-backend/pkg/util"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrInvalidTimeWindow  = errors.New("invalid time window definition")
	ErrCapacityBelowBooked = errors.New("max capacity cannot drop below current bookings")
)

type RestaurantSearchInput struct {
	Territory   string
	CuisineType string
	Search      string
	MinDiscount int
	AvailableOn *time.Time
	Latitude    *float64
	Longitude   *float64
	SortBy      string // rating | discount | distance | created_at
	Limit       int
	Offset      int
}

type CreateTimeWindowInput struct {
	OwnerID            uint
	RestaurantID       uint
	Date               time.Time
	StartTime          string
	EndTime            string
	DiscountPercentage int
	MaxCapacity        int
}

type RestaurantService interface {
	GetRestaurants(input RestaurantSearchInput) ([]model.Restaurant, error)
	GetRestaurantByID(id uint) (*model.Restaurant, error)
	GetOwnerRestaurants(ownerID uint) ([]model.Restaurant, error)
	GetAvailability(restaurantID uint, date time.Time) ([]model.TimeWindow, error)
	ListTerritories() ([]string, error)
	ListCuisines() ([]string, error)
	CreateRestaurant(restaurant *model.Restaurant) error
	UpdateRestaurant(ownerID uint, restaurant *model.Restaurant) error
	CreateTimeWindow(input CreateTimeWindowInput) (*model.TimeWindow, error)
	UpdateTimeWindow(ownerID, windowID uint, maxCapacity int, isActive *bool) (*model.TimeWindow, error)
	AddPhoto(ownerID uint, photo *model.RestaurantPhoto) error
	RemovePhoto(ownerID, restaurantID, photoID uint) error
}

type restaurantService struct {
	restaurantRepo repository.RestaurantRepository
	timeWindowRepo repository.TimeWindowRepository
}

func NewRestaurantService(
	restaurantRepo repository.RestaurantRepository,
	timeWindowRepo repository.TimeWindowRepository,
) RestaurantService {
	return &restaurantService{
		restaurantRepo: restaurantRepo,
		timeWindowRepo: timeWindowRepo,
	}
}

func (s *restaurantService) GetRestaurants(input RestaurantSearchInput) ([]model.Restaurant, error) {
	filter := repository.RestaurantFilter{
		Territory:      input.Territory,
		CuisineType:    input.CuisineType,
		Search:         input.Search,
		MinDiscount:    input.MinDiscount,
		AvailableOn:    input.AvailableOn,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeWindows: true,
	}

	sortByDistance := input.SortBy == "distance" && input.Latitude != nil && input.Longitude != nil
	switch input.SortBy {
	case "discount":
		filter.SortBy = repository.RestaurantSortDiscount
	case "created_at":
		filter.SortBy = repository.RestaurantSortCreatedAt
	default:
		filter.SortBy = repository.RestaurantSortRating
	}
	if sortByDistance {
		// Distance ordering happens in memory, so pull the whole filtered
		// set and page afterwards.
		filter.Limit = 0
		filter.Offset = 0
	}

	restaurants, err := s.restaurantRepo.FindWithFilter(filter)
	if err != nil {
		return nil, err
	}

	if sortByDistance {
		lat, lng := *input.Latitude, *input.Longitude
		sort.SliceStable(restaurants, func(i, j int) bool {
			di := util.CalculateDistance(lat, lng, restaurants[i].Latitude, restaurants[i].Longitude)
			dj := util.CalculateDistance(lat, lng, restaurants[j].Latitude, restaurants[j].Longitude)
			return di < dj
		})
		if input.Offset > 0 {
			if input.Offset >= len(restaurants) {
				return []model.Restaurant{}, nil
			}
			restaurants = restaurants[input.Offset:]
		}
		if input.Limit > 0 && input.Limit < len(restaurants) {
			restaurants = restaurants[:input.Limit]
		}
	}
	return restaurants, nil
}

func (s *restaurantService) GetRestaurantByID(id uint) (*model.Restaurant, error) {
	restaurant, err := s.restaurantRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return restaurant, nil
}

func (s *restaurantService) GetOwnerRestaurants(ownerID uint) ([]model.Restaurant, error) {
	return s.restaurantRepo.FindByOwnerID(ownerID)
}

func (s *restaurantService) GetAvailability(restaurantID uint, date time.Time) ([]model.TimeWindow, error) {
	if _, err := s.GetRestaurantByID(restaurantID); err != nil {
		return nil, err
	}
	return s.timeWindowRepo.FindAvailable(restaurantID, date)
}

func (s *restaurantService) ListTerritories() ([]string, error) {
	return s.restaurantRepo.ListTerritories()
}

func (s *restaurantService) ListCuisines() ([]string, error) {
	return s.restaurantRepo.ListCuisines()
}

func (s *restaurantService) CreateRestaurant(restaurant *model.Restaurant) error {
	return s.restaurantRepo.Create(restaurant)
}

func (s *restaurantService) UpdateRestaurant(ownerID uint, restaurant *model.Restaurant) error {
	existing, err := s.GetRestaurantByID(restaurant.ID)
	if err != nil {
		return err
	}
	if ownerID != 0 && (existing.OwnerID == nil || *existing.OwnerID != ownerID) {
		return ErrNotRestaurantOwner
	}
	return s.restaurantRepo.Update(restaurant)
}

func (s *restaurantService) CreateTimeWindow(input CreateTimeWindowInput) (*model.TimeWindow, error) {
	restaurant, err := s.GetRestaurantByID(input.RestaurantID)
	if err != nil {
		return nil, err
	}
	if input.OwnerID != 0 && (restaurant.OwnerID == nil || *restaurant.OwnerID != input.OwnerID) {
		return nil, ErrNotRestaurantOwner
	}

	if !model.ValidHHMM(input.StartTime) || !model.ValidHHMM(input.EndTime) ||
		input.EndTime <= input.StartTime || input.MaxCapacity < 1 ||
		input.DiscountPercentage < 0 || input.DiscountPercentage > 100 {
		return nil, ErrInvalidTimeWindow
	}

	window := &model.TimeWindow{
		RestaurantID:       input.RestaurantID,
		Date:               input.Date,
		StartTime:          input.StartTime,
		EndTime:            input.EndTime,
		DiscountPercentage: input.DiscountPercentage,
		MaxCapacity:        input.MaxCapacity,
		IsActive:           true,
	}
	if err := s.timeWindowRepo.Create(window); err != nil {
		return nil, err
	}

	logger.Info("Time window created", map[string]interface{}{
		"time_window_id": window.ID,
		"restaurant_id":  input.RestaurantID,
		"date":           input.Date,
	})
	return window, nil
}

// UpdateTimeWindow adjusts capacity or the active flag. Capacity can never
// shrink below the seats already booked.
func (s *restaurantService) UpdateTimeWindow(ownerID, windowID uint, maxCapacity int, isActive *bool) (*model.TimeWindow, error) {
	window, err := s.timeWindowRepo.FindByID(windowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeWindowNotFound
		}
		return nil, err
	}

	if ownerID != 0 && (window.Restaurant.OwnerID == nil || *window.Restaurant.OwnerID != ownerID) {
		return nil, ErrNotRestaurantOwner
	}

	if maxCapacity > 0 {
		if maxCapacity < window.CurrentBookings {
			return nil, ErrCapacityBelowBooked
		}
		window.MaxCapacity = maxCapacity
	}
	if isActive != nil {
		window.IsActive = *isActive
	}

	if err := s.timeWindowRepo.Update(window); err != nil {
		return nil, err
	}
	return window, nil
}

// AddPhoto attaches an uploaded S3 object to the restaurant's gallery.
func (s *restaurantService) AddPhoto(ownerID uint, photo *model.RestaurantPhoto) error {
	restaurant, err := s.GetRestaurantByID(photo.RestaurantID)
	if err != nil {
		return err
	}
	if ownerID != 0 && (restaurant.OwnerID == nil || *restaurant.OwnerID != ownerID) {
		return ErrNotRestaurantOwner
	}
	return s.restaurantRepo.AddPhoto(photo)
}

func (s *restaurantService) RemovePhoto(ownerID, restaurantID, photoID uint) error {
	restaurant, err := s.GetRestaurantByID(restaurantID)
	if err != nil {
		return err
	}
	if ownerID != 0 && (restaurant.OwnerID == nil || *restaurant.OwnerID != ownerID) {
		return ErrNotRestaurantOwner
	}

	photo, err := s.restaurantRepo.FindPhotoByID(photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRestaurantNotFound
		}
		return err
	}
	if photo.RestaurantID != restaurantID {
		return ErrRestaurantNotFound
	}
	return s.restaurantRepo.DeletePhoto(photoID)
}
