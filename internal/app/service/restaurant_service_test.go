package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/internal/db"
)

func setupRestaurantServiceTest(t *testing.T) (RestaurantService, *model.User, *model.Restaurant) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	restaurantRepo := repository.NewRestaurantRepository(testDB)
	timeWindowRepo := repository.NewTimeWindowRepository(testDB)
	svc := NewRestaurantService(restaurantRepo, timeWindowRepo)

	owner := &model.User{
		Email:        "owner@example.com",
		PasswordHash: "hash",
		DisplayName:  "Test Owner",
		Role:         model.RoleOwner,
		ReferralCode: "OWNER456",
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(owner).Error)

	restaurant := &model.Restaurant{
		OwnerID:      &owner.ID,
		Name:         "Test Restaurant",
		CuisineType:  "cantonese",
		Territory:    "kowloon",
		Address:      "2 Test Road",
		MaxPartySize: 8,
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(restaurant).Error)

	return svc, owner, restaurant
}

func TestRestaurantService_CreateTimeWindow(t *testing.T) {
	svc, owner, restaurant := setupRestaurantServiceTest(t)

	date := time.Now().AddDate(0, 0, 3).Truncate(24 * time.Hour)
	window, err := svc.CreateTimeWindow(CreateTimeWindowInput{
		OwnerID:            owner.ID,
		RestaurantID:       restaurant.ID,
		Date:               date,
		StartTime:          "14:00",
		EndTime:            "16:00",
		DiscountPercentage: 30,
		MaxCapacity:        20,
	})
	require.NoError(t, err)
	assert.NotZero(t, window.ID)
	assert.True(t, window.IsActive)
	assert.Equal(t, 14, window.StartsAt().Hour())
}

func TestRestaurantService_CreateTimeWindow_RejectsMalformedTimes(t *testing.T) {
	svc, owner, restaurant := setupRestaurantServiceTest(t)
	date := time.Now().AddDate(0, 0, 3).Truncate(24 * time.Hour)

	cases := []struct {
		name      string
		startTime string
		endTime   string
	}{
		{"twelve hour clock", "6pm", "8pm"},
		{"hour out of range", "25:00", "26:00"},
		{"minute out of range", "18:70", "19:00"},
		{"missing zero padding", "9:30", "11:00"},
		{"empty start", "", "16:00"},
		{"end before start", "16:00", "14:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTimeWindow(CreateTimeWindowInput{
				OwnerID:            owner.ID,
				RestaurantID:       restaurant.ID,
				Date:               date,
				StartTime:          tc.startTime,
				EndTime:            tc.endTime,
				DiscountPercentage: 30,
				MaxCapacity:        20,
			})
			assert.ErrorIs(t, err, ErrInvalidTimeWindow)
		})
	}
}

func TestRestaurantService_CreateTimeWindow_NotOwner(t *testing.T) {
	svc, _, restaurant := setupRestaurantServiceTest(t)

	_, err := svc.CreateTimeWindow(CreateTimeWindowInput{
		OwnerID:            9999,
		RestaurantID:       restaurant.ID,
		Date:               time.Now().AddDate(0, 0, 3),
		StartTime:          "14:00",
		EndTime:            "16:00",
		DiscountPercentage: 30,
		MaxCapacity:        20,
	})
	assert.ErrorIs(t, err, ErrNotRestaurantOwner)
}
