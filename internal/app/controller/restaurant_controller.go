package controller

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/service"
	"github.com/beforepeak/beforepeak-backend/internal/errors"
	"github.com/beforepeak/beforepeak-backend/internal/middleware"
)

type RestaurantController struct {
	restaurantService service.RestaurantService
}

func NewRestaurantController(restaurantService service.RestaurantService) *RestaurantController {
	return &RestaurantController{
		restaurantService: restaurantService,
	}
}

type CreateTimeWindowRequest struct {
	Date               string `json:"date" binding:"required"` // YYYY-MM-DD
	StartTime          string `json:"start_time" binding:"required"`
	EndTime            string `json:"end_time" binding:"required"`
	DiscountPercentage int    `json:"discount_percentage" binding:"required,min=1,max=100"`
	MaxCapacity        int    `json:"max_capacity" binding:"required,min=1"`
}

type UpdateTimeWindowRequest struct {
	MaxCapacity int   `json:"max_capacity"`
	IsActive    *bool `json:"is_active"`
}

// GetRestaurants searches active restaurants
// GET /api/v1/restaurants
func (ctrl *RestaurantController) GetRestaurants(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	input := service.RestaurantSearchInput{
		Territory:   c.Query("territory"),
		CuisineType: c.Query("cuisine"),
		Search:      c.Query("q"),
		SortBy:      c.Query("sort"),
	}

	if v := c.Query("min_discount"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			input.MinDiscount = n
		}
	}
	if v := c.Query("date"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			input.AvailableOn = &parsed
		}
	}
	if lat, err := strconv.ParseFloat(c.Query("lat"), 64); err == nil {
		if lng, err := strconv.ParseFloat(c.Query("lng"), 64); err == nil {
			input.Latitude = &lat
			input.Longitude = &lng
		}
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		input.Limit = n
	} else {
		input.Limit = 20
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		input.Offset = n
	}

	restaurants, err := ctrl.restaurantService.GetRestaurants(input)
	if err != nil {
		log.Error("Failed to search restaurants", err, nil)
		errors.InternalError(c, "Failed to fetch restaurants")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurants": restaurants,
		"count":       len(restaurants),
	})
}

// GetRestaurantByID returns one restaurant with its photos and windows
// GET /api/v1/restaurants/:id
func (ctrl *RestaurantController) GetRestaurantByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	restaurant, err := ctrl.restaurantService.GetRestaurantByID(id)
	if err != nil {
		if stderrors.Is(err, service.ErrRestaurantNotFound) {
			errors.NotFound(c, errors.RestaurantNotFound, "Restaurant not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant,
	})
}

// GetAvailability lists available time windows for a date
// GET /api/v1/restaurants/:id/availability
func (ctrl *RestaurantController) GetAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	date := time.Now().Truncate(24 * time.Hour)
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			errors.BadRequest(c, errors.ValidationInvalidRange, "Invalid date")
			return
		}
		date = parsed
	}

	windows, err := ctrl.restaurantService.GetAvailability(id, date)
	if err != nil {
		if stderrors.Is(err, service.ErrRestaurantNotFound) {
			errors.NotFound(c, errors.RestaurantNotFound, "Restaurant not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"time_windows": windows,
		"count":        len(windows),
	})
}

// GetTerritories lists distinct territories with active restaurants
// GET /api/v1/restaurants/territories
func (ctrl *RestaurantController) GetTerritories(c *gin.Context) {
	territories, err := ctrl.restaurantService.ListTerritories()
	if err != nil {
		errors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"territories": territories,
	})
}

// GetCuisines lists distinct cuisine types with active restaurants
// GET /api/v1/restaurants/cuisines
func (ctrl *RestaurantController) GetCuisines(c *gin.Context) {
	cuisines, err := ctrl.restaurantService.ListCuisines()
	if err != nil {
		errors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cuisines": cuisines,
	})
}

// GetOwnerRestaurants lists the authenticated owner's restaurants
// GET /api/v1/owner/restaurants
func (ctrl *RestaurantController) GetOwnerRestaurants(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	restaurants, err := ctrl.restaurantService.GetOwnerRestaurants(userID)
	if err != nil {
		errors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurants": restaurants,
		"count":       len(restaurants),
	})
}

// CreateTimeWindow creates a discounted slot for an owned restaurant
// POST /api/v1/owner/restaurants/:id/time-windows
func (ctrl *RestaurantController) CreateTimeWindow(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateTimeWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	ownerID := userID
	if role, _ := middleware.GetUserRole(c); role == model.RoleAdmin {
		ownerID = 0
	}

	window, err := ctrl.restaurantService.CreateTimeWindow(service.CreateTimeWindowInput{
		OwnerID:            ownerID,
		RestaurantID:       restaurantID,
		Date:               date,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		DiscountPercentage: req.DiscountPercentage,
		MaxCapacity:        req.MaxCapacity,
	})
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrRestaurantNotFound):
			errors.NotFound(c, errors.RestaurantNotFound, "Restaurant not found")
		case stderrors.Is(err, service.ErrNotRestaurantOwner):
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzNotOwner, "")
		case stderrors.Is(err, service.ErrInvalidTimeWindow):
			errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid time window definition")
		default:
			log.Error("Failed to create time window", err, map[string]interface{}{
				"restaurant_id": restaurantID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"time_window": window,
	})
}

// UpdateTimeWindow adjusts capacity or deactivates a slot
// PATCH /api/v1/owner/time-windows/:id
func (ctrl *RestaurantController) UpdateTimeWindow(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	windowID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTimeWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	ownerID := userID
	if role, _ := middleware.GetUserRole(c); role == model.RoleAdmin {
		ownerID = 0
	}

	window, err := ctrl.restaurantService.UpdateTimeWindow(ownerID, windowID, req.MaxCapacity, req.IsActive)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrTimeWindowNotFound):
			errors.NotFound(c, errors.ResourceNotFound, "Time window not found")
		case stderrors.Is(err, service.ErrNotRestaurantOwner):
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzNotOwner, "")
		case stderrors.Is(err, service.ErrCapacityBelowBooked):
			errors.Conflict(c, errors.ValidationInvalidRange, "Max capacity cannot drop below current bookings")
		default:
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"time_window": window,
	})
}

type AddPhotoRequest struct {
	Key          string `json:"key" binding:"required"` // S3 object key from the presign flow
	URL          string `json:"url" binding:"required,url"`
	Caption      string `json:"caption"`
	IsFeatured   bool   `json:"is_featured"`
	DisplayOrder int    `json:"display_order"`
}

// AddPhoto attaches an uploaded photo to an owned restaurant
// POST /api/v1/owner/restaurants/:id/photos
func (ctrl *RestaurantController) AddPhoto(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	ownerID := userID
	if role, _ := middleware.GetUserRole(c); role == model.RoleAdmin {
		ownerID = 0
	}

	photo := &model.RestaurantPhoto{
		RestaurantID: restaurantID,
		Key:          req.Key,
		URL:          req.URL,
		Caption:      req.Caption,
		IsFeatured:   req.IsFeatured,
		DisplayOrder: req.DisplayOrder,
	}
	if err := ctrl.restaurantService.AddPhoto(ownerID, photo); err != nil {
		switch {
		case stderrors.Is(err, service.ErrRestaurantNotFound):
			errors.NotFound(c, errors.RestaurantNotFound, "Restaurant not found")
		case stderrors.Is(err, service.ErrNotRestaurantOwner):
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzNotOwner, "")
		default:
			log.Error("Failed to add restaurant photo", err, map[string]interface{}{
				"restaurant_id": restaurantID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"photo": photo,
	})
}

// RemovePhoto detaches a photo from an owned restaurant
// DELETE /api/v1/owner/restaurants/:id/photos/:photo_id
func (ctrl *RestaurantController) RemovePhoto(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	photoID, ok := parseIDParam(c, "photo_id")
	if !ok {
		return
	}

	ownerID := userID
	if role, _ := middleware.GetUserRole(c); role == model.RoleAdmin {
		ownerID = 0
	}

	if err := ctrl.restaurantService.RemovePhoto(ownerID, restaurantID, photoID); err != nil {
		switch {
		case stderrors.Is(err, service.ErrRestaurantNotFound):
			errors.NotFound(c, errors.RestaurantNotFound, "Photo not found")
		case stderrors.Is(err, service.ErrNotRestaurantOwner):
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzNotOwner, "")
		default:
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Photo removed",
	})
}

type RestaurantRequest struct {
	Name          string  `json:"name" binding:"required"`
	NameZh        string  `json:"name_zh"`
	Description   string  `json:"description"`
	DescriptionZh string  `json:"description_zh"`
	CuisineType   string  `json:"cuisine_type" binding:"required"`
	Territory     string  `json:"territory" binding:"required"`
	Address       string  `json:"address" binding:"required"`
	AddressZh     string  `json:"address_zh"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Phone         string  `json:"phone"`
	Email         string  `json:"email"`
	Website       string  `json:"website"`
	MaxPartySize  int     `json:"max_party_size"`
}

// CreateRestaurant registers a new restaurant owned by the caller
// POST /api/v1/owner/restaurants
func (ctrl *RestaurantController) CreateRestaurant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	restaurant := &model.Restaurant{
		OwnerID:       &userID,
		Name:          req.Name,
		NameZh:        req.NameZh,
		Description:   req.Description,
		DescriptionZh: req.DescriptionZh,
		CuisineType:   req.CuisineType,
		Territory:     req.Territory,
		Address:       req.Address,
		AddressZh:     req.AddressZh,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Phone:         req.Phone,
		Email:         req.Email,
		Website:       req.Website,
		MaxPartySize:  req.MaxPartySize,
		IsActive:      true,
	}
	if restaurant.MaxPartySize == 0 {
		restaurant.MaxPartySize = 8
	}

	if err := ctrl.restaurantService.CreateRestaurant(restaurant); err != nil {
		log.Error("Failed to create restaurant", err, map[string]interface{}{
			"owner_id": userID,
		})
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"restaurant": restaurant,
	})
}

// UpdateRestaurant edits an owned restaurant's profile
// PATCH /api/v1/owner/restaurants/:id
func (ctrl *RestaurantController) UpdateRestaurant(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	existing, err := ctrl.restaurantService.GetRestaurantByID(restaurantID)
	if err != nil {
		errors.NotFound(c, errors.RestaurantNotFound, "Restaurant not found")
		return
	}

	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	existing.Name = req.Name
	existing.NameZh = req.NameZh
	existing.Description = req.Description
	existing.DescriptionZh = req.DescriptionZh
	existing.CuisineType = req.CuisineType
	existing.Territory = req.Territory
	existing.Address = req.Address
	existing.AddressZh = req.AddressZh
	existing.Latitude = req.Latitude
	existing.Longitude = req.Longitude
	existing.Phone = req.Phone
	existing.Email = req.Email
	existing.Website = req.Website
	if req.MaxPartySize > 0 {
		existing.MaxPartySize = req.MaxPartySize
	}

	ownerID := userID
	if role, _ := middleware.GetUserRole(c); role == model.RoleAdmin {
		ownerID = 0
	}

	if err := ctrl.restaurantService.UpdateRestaurant(ownerID, existing); err != nil {
		switch {
		case stderrors.Is(err, service.ErrNotRestaurantOwner):
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzNotOwner, "")
		default:
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant": existing,
	})
}
