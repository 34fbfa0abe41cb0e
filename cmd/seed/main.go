package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/beforepeak/beforepeak-backend/config"
	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/db"
	"github.com/beforepeak/beforepeak-backend/pkg/util"
	"github.com/xuri/excelize/v2"
)

// Seeds the database with demo accounts and restaurants, or bulk-imports
// restaurants from an XLSX sheet when a file path is given:
//
//	go run cmd/seed/main.go          # demo data
//	go run cmd/seed/main.go data.xlsx
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if len(os.Args) > 1 {
		importFromXLSX(os.Args[1])
		return
	}

	seedDemoData()
}

func importFromXLSX(filePath string) {
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	restaurants, err := readRestaurantsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total restaurants to import: %d\n", len(restaurants))
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	if err := db.GetDB().CreateInBatches(restaurants, 500).Error; err != nil {
		log.Fatal("Failed to bulk create restaurants:", err)
	}

	fmt.Printf("Import completed: %d restaurants\n", len(restaurants))
}

// Expected columns: name, name_zh, cuisine_type, territory, address,
// latitude, longitude, phone, max_party_size. First row is the header.
func readRestaurantsFromXLSX(filePath string) ([]model.Restaurant, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("XLSX file has no data rows")
	}

	var restaurants []model.Restaurant
	for i, row := range rows[1:] {
		if len(row) < 5 || row[0] == "" {
			continue
		}
		r := model.Restaurant{
			Name:        cell(row, 0),
			NameZh:      cell(row, 1),
			CuisineType: cell(row, 2),
			Territory:   cell(row, 3),
			Address:     cell(row, 4),
			Phone:       cell(row, 7),
			IsActive:    true,
		}
		r.Latitude, err = parseFloat(cell(row, 5))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad latitude: %w", i+2, err)
		}
		r.Longitude, err = parseFloat(cell(row, 6))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad longitude: %w", i+2, err)
		}
		if v := cell(row, 8); v != "" {
			r.MaxPartySize, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad max_party_size: %w", i+2, err)
			}
		} else {
			r.MaxPartySize = 8
		}
		restaurants = append(restaurants, r)
	}

	return restaurants, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func seedDemoData() {
	gdb := db.GetDB()

	var count int64
	gdb.Model(&model.Restaurant{}).Count(&count)
	if count > 0 {
		fmt.Println("Database already seeded, skipping.")
		return
	}

	hash, err := util.HashPassword("password123")
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	owner := model.User{
		Email:             "owner@beforepeak.test",
		PasswordHash:      hash,
		DisplayName:       "Demo Owner",
		Role:              model.RoleOwner,
		PreferredLanguage: "zh-HK",
		ReferralCode:      util.GenerateReferralCode(8),
		IsActive:          true,
	}
	customer := model.User{
		Email:             "customer@beforepeak.test",
		PasswordHash:      hash,
		DisplayName:       "Demo Customer",
		Role:              model.RoleCustomer,
		PreferredLanguage: "en",
		ReferralCode:      util.GenerateReferralCode(8),
		IsActive:          true,
	}
	admin := model.User{
		Email:             "admin@beforepeak.test",
		PasswordHash:      hash,
		DisplayName:       "Demo Admin",
		Role:              model.RoleAdmin,
		PreferredLanguage: "en",
		ReferralCode:      util.GenerateReferralCode(8),
		IsActive:          true,
	}
	for _, u := range []*model.User{&owner, &customer, &admin} {
		if err := gdb.Create(u).Error; err != nil {
			log.Fatal("Failed to create user:", err)
		}
	}

	restaurants := []model.Restaurant{
		{
			OwnerID:      &owner.ID,
			Name:         "Golden Lotus Dim Sum",
			NameZh:       "金蓮點心",
			Description:  "Traditional Cantonese dim sum in the heart of Central.",
			CuisineType:  "cantonese",
			Territory:    "hong_kong_island",
			Address:      "12 Wellington Street, Central",
			Latitude:     22.2819,
			Longitude:    114.1556,
			Phone:        "+852 2521 0000",
			MaxPartySize: 10,
			IsActive:     true,
			IsVerified:   true,
		},
		{
			OwnerID:      &owner.ID,
			Name:         "Kowloon Noodle House",
			NameZh:       "九龍麵家",
			Description:  "Hand-pulled noodles and wonton soup since 1978.",
			CuisineType:  "noodles",
			Territory:    "kowloon",
			Address:      "88 Nathan Road, Tsim Sha Tsui",
			Latitude:     22.2976,
			Longitude:    114.1722,
			Phone:        "+852 2730 0000",
			MaxPartySize: 6,
			IsActive:     true,
			IsVerified:   true,
		},
		{
			OwnerID:      &owner.ID,
			Name:         "Sha Tin Seafood Garden",
			NameZh:       "沙田海鮮園",
			Description:  "Fresh seafood with a riverside view.",
			CuisineType:  "seafood",
			Territory:    "new_territories",
			Address:      "3 Tai Wai Road, Sha Tin",
			Latitude:     22.3771,
			Longitude:    114.1847,
			Phone:        "+852 2691 0000",
			MaxPartySize: 12,
			IsActive:     true,
			IsVerified:   true,
		},
		{
			OwnerID:      &owner.ID,
			Name:         "Soho Bistro",
			NameZh:       "蘇豪小館",
			Description:  "Modern European plates and natural wine.",
			CuisineType:  "western",
			Territory:    "hong_kong_island",
			Address:      "45 Staunton Street, Soho",
			Latitude:     22.2823,
			Longitude:    114.1520,
			Phone:        "+852 2840 0000",
			MaxPartySize: 8,
			IsActive:     true,
		},
	}
	for i := range restaurants {
		if err := gdb.Create(&restaurants[i]).Error; err != nil {
			log.Fatal("Failed to create restaurant:", err)
		}
	}

	// Off-peak windows for the next two weeks: a late-lunch slot and a
	// late-dinner slot per restaurant per day.
	var windows []model.TimeWindow
	today := time.Now().Truncate(24 * time.Hour)
	for _, r := range restaurants {
		for d := 1; d <= 14; d++ {
			date := today.AddDate(0, 0, d)
			windows = append(windows,
				model.TimeWindow{
					RestaurantID:       r.ID,
					Date:               date,
					StartTime:          "14:00",
					EndTime:            "16:00",
					DiscountPercentage: 30,
					MaxCapacity:        20,
					IsActive:           true,
				},
				model.TimeWindow{
					RestaurantID:       r.ID,
					Date:               date,
					StartTime:          "21:00",
					EndTime:            "22:30",
					DiscountPercentage: 25,
					MaxCapacity:        12,
					IsActive:           true,
				},
			)
		}
	}
	if err := gdb.CreateInBatches(windows, 500).Error; err != nil {
		log.Fatal("Failed to create time windows:", err)
	}

	fmt.Printf("Seeded %d users, %d restaurants, %d time windows\n",
		3, len(restaurants), len(windows))
	fmt.Println("Demo logins: owner@beforepeak.test / customer@beforepeak.test / admin@beforepeak.test (password123)")
}
