package service

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

// ReportService builds owner-facing exports.
type ReportService interface {
	ExportRestaurantBookings(ownerID, restaurantID uint, from, to time.Time) (*excelize.File, string, error)
}

type reportService struct {
	bookingSvc    BookingService
	restaurantSvc RestaurantService
}

func NewReportService(bookingSvc BookingService, restaurantSvc RestaurantService) ReportService {
	return &reportService{
		bookingSvc:    bookingSvc,
		restaurantSvc: restaurantSvc,
	}
}

// ExportRestaurantBookings writes the restaurant's bookings for the period
// into an xlsx workbook and returns it with a suggested filename.
func (s *reportService) ExportRestaurantBookings(ownerID, restaurantID uint, from, to time.Time) (*excelize.File, string, error) {
	restaurant, err := s.restaurantSvc.GetRestaurantByID(restaurantID)
	if err != nil {
		return nil, "", err
	}

	bookings, err := s.bookingSvc.GetRestaurantBookings(ownerID, restaurantID, from, to)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	const sheet = "Bookings"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Booking ID", "Date", "Start", "End", "Party Size", "Status", "Fee (HKD)", "Payment", "Guest", "Special Requests"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, booking := range bookings {
		values := []interface{}{
			booking.ID,
			booking.TimeWindow.Date.Format("2006-01-02"),
			booking.TimeWindow.StartTime,
			booking.TimeWindow.EndTime,
			booking.PartySize,
			string(booking.Status),
			booking.BookingFee,
			string(booking.PaymentStatus),
			booking.User.DisplayName,
			booking.SpecialRequests,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("%s-bookings-%s-%s.xlsx",
		restaurant.Name, from.Format("20060102"), to.Format("20060102"))

	logger.Info("Booking export generated", map[string]interface{}{
		"restaurant_id": restaurantID,
		"rows":          len(bookings),
	})
	return f, filename, nil
}
