package repository

import (
	"testing"
	"time"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRestaurantRepoTest(t *testing.T) (RestaurantRepository, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := NewRestaurantRepository(testDB)

	dimSum := &model.Restaurant{
		Name:        "Golden Lotus Dim Sum",
		NameZh:      "金蓮點心",
		CuisineType: "cantonese",
		Territory:   "hong_kong_island",
		Address:     "12 Wellington Street",
		IsActive:    true,
	}
	noodles := &model.Restaurant{
		Name:        "Kowloon Noodle House",
		CuisineType: "noodles",
		Territory:   "kowloon",
		Address:     "88 Nathan Road",
		IsActive:    true,
	}
	closed := &model.Restaurant{
		Name:        "Closed Kitchen",
		CuisineType: "cantonese",
		Territory:   "kowloon",
		Address:     "1 Shut Street",
		IsActive:    false,
	}
	for _, r := range []*model.Restaurant{dimSum, noodles, closed} {
		require.NoError(t, testDB.Create(r).Error)
	}

	tomorrow := time.Now().AddDate(0, 0, 1)
	windows := []model.TimeWindow{
		{RestaurantID: dimSum.ID, Date: tomorrow, StartTime: "14:00", EndTime: "16:00",
			DiscountPercentage: 40, MaxCapacity: 10, IsActive: true},
		{RestaurantID: dimSum.ID, Date: tomorrow, StartTime: "21:00", EndTime: "22:00",
			DiscountPercentage: 20, MaxCapacity: 10, IsActive: true},
		{RestaurantID: noodles.ID, Date: tomorrow, StartTime: "15:00", EndTime: "17:00",
			DiscountPercentage: 25, MaxCapacity: 8, IsActive: true},
	}
	for i := range windows {
		require.NoError(t, testDB.Create(&windows[i]).Error)
	}

	return repo, testDB
}

func TestRestaurantRepository_FindWithFilter_Territory(t *testing.T) {
	repo, _ := setupRestaurantRepoTest(t)

	restaurants, err := repo.FindWithFilter(RestaurantFilter{Territory: "kowloon"})
	require.NoError(t, err)

	// Inactive restaurants never surface
	require.Len(t, restaurants, 1)
	assert.Equal(t, "Kowloon Noodle House", restaurants[0].Name)
}

func TestRestaurantRepository_FindWithFilter_MinDiscount(t *testing.T) {
	repo, _ := setupRestaurantRepoTest(t)

	restaurants, err := repo.FindWithFilter(RestaurantFilter{MinDiscount: 30})
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "Golden Lotus Dim Sum", restaurants[0].Name)
}

func TestRestaurantRepository_FindWithFilter_FullWindowsExcluded(t *testing.T) {
	repo, testDB := setupRestaurantRepoTest(t)

	// A sold-out window no longer counts toward the live discount
	testDB.Model(&model.TimeWindow{}).
		Where("discount_percentage = ?", 40).
		Update("current_bookings", 10)

	restaurants, err := repo.FindWithFilter(RestaurantFilter{MinDiscount: 30})
	require.NoError(t, err)
	assert.Empty(t, restaurants)
}

func TestRestaurantRepository_FindWithFilter_Search(t *testing.T) {
	repo, _ := setupRestaurantRepoTest(t)

	restaurants, err := repo.FindWithFilter(RestaurantFilter{Search: "Noodle"})
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "Kowloon Noodle House", restaurants[0].Name)

	// Chinese names are searchable too
	restaurants, err = repo.FindWithFilter(RestaurantFilter{Search: "金蓮"})
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "Golden Lotus Dim Sum", restaurants[0].Name)
}

func TestRestaurantRepository_FindWithFilter_SortByDiscount(t *testing.T) {
	repo, _ := setupRestaurantRepoTest(t)

	restaurants, err := repo.FindWithFilter(RestaurantFilter{SortBy: RestaurantSortDiscount})
	require.NoError(t, err)
	require.Len(t, restaurants, 2)
	assert.Equal(t, "Golden Lotus Dim Sum", restaurants[0].Name)
	assert.Equal(t, "Kowloon Noodle House", restaurants[1].Name)
}

func TestRestaurantRepository_FindWithFilter_Pagination(t *testing.T) {
	repo, _ := setupRestaurantRepoTest(t)

	page, err := repo.FindWithFilter(RestaurantFilter{
		SortBy: RestaurantSortDiscount,
		Limit:  1,
		Offset: 1,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Kowloon Noodle House", page[0].Name)
}

func TestRestaurantRepository_ListTerritories(t *testing.T) {
	repo, _ := setupRestaurantRepoTest(t)

	territories, err := repo.ListTerritories()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hong_kong_island", "kowloon"}, territories)

	cuisines, err := repo.ListCuisines()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cantonese", "noodles"}, cuisines)
}

func TestRestaurantRepository_UpdateRating(t *testing.T) {
	repo, testDB := setupRestaurantRepoTest(t)

	var restaurant model.Restaurant
	require.NoError(t, testDB.Where("name = ?", "Golden Lotus Dim Sum").First(&restaurant).Error)

	require.NoError(t, repo.UpdateRating(testDB, restaurant.ID, 4.5, 12))

	var updated model.Restaurant
	testDB.First(&updated, restaurant.ID)
	assert.Equal(t, 4.5, updated.AverageRating)
	assert.Equal(t, 12, updated.TotalReviews)
}
