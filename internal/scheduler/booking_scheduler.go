package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/internal/app/service"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

// BookingScheduler runs the periodic booking sweeps: reclaiming unpaid
// pending bookings, auto-completing past confirmed ones, and sending
// reminders.
type BookingScheduler struct {
	cron            *cron.Cron
	bookingRepo     repository.BookingRepository
	timeWindowRepo  repository.TimeWindowRepository
	bookingSvc      service.BookingService
	notificationSvc service.NotificationService
	db              *gorm.DB
	pendingExpiry   time.Duration
}

func NewBookingScheduler(
	bookingRepo repository.BookingRepository,
	timeWindowRepo repository.TimeWindowRepository,
	bookingSvc service.BookingService,
	notificationSvc service.NotificationService,
	db *gorm.DB,
	pendingExpiry time.Duration,
) *BookingScheduler {
	return &BookingScheduler{
		cron:            cron.New(),
		bookingRepo:     bookingRepo,
		timeWindowRepo:  timeWindowRepo,
		bookingSvc:      bookingSvc,
		notificationSvc: notificationSvc,
		db:              db,
		pendingExpiry:   pendingExpiry,
	}
}

// Start registers the cron jobs and starts the scheduler.
func (s *BookingScheduler) Start() error {
	// Every 5 minutes: cancel pending bookings whose payment never came.
	if _, err := s.cron.AddFunc("*/5 * * * *", s.ExpirePendingBookings); err != nil {
		logger.Error("Failed to add pending-expiry cron job", err)
		return err
	}

	// Hourly: complete confirmed bookings whose slot has passed.
	if _, err := s.cron.AddFunc("0 * * * *", s.CompletePastBookings); err != nil {
		logger.Error("Failed to add auto-complete cron job", err)
		return err
	}

	// Daily at 10:00 HKT: remind users about tomorrow's bookings.
	if _, err := s.cron.AddFunc("0 10 * * *", s.SendReminders); err != nil {
		logger.Error("Failed to add reminder cron job", err)
		return err
	}

	s.cron.Start()
	logger.Info("Booking scheduler started", map[string]interface{}{
		"pending_expiry": s.pendingExpiry.String(),
	})
	return nil
}

// Stop halts the scheduler.
func (s *BookingScheduler) Stop() {
	logger.Info("Stopping booking scheduler", nil)
	s.cron.Stop()
}

// ExpirePendingBookings frees capacity held by bookings that were never
// paid. No credit is issued because no fee was collected.
func (s *BookingScheduler) ExpirePendingBookings() {
	cutoff := time.Now().Add(-s.pendingExpiry)

	bookings, err := s.bookingRepo.FindExpiredPending(cutoff)
	if err != nil {
		logger.Error("Failed to sweep expired pending bookings", err)
		return
	}
	if len(bookings) == 0 {
		return
	}

	logger.Info("Expiring unpaid pending bookings", map[string]interface{}{
		"count": len(bookings),
	})

	for _, booking := range bookings {
		tx := s.db.Begin()

		if err := s.timeWindowRepo.Release(tx, booking.TimeWindowID, booking.PartySize); err != nil {
			tx.Rollback()
			logger.Error("Failed to release seats for expired booking", err, map[string]interface{}{
				"booking_id": booking.ID,
			})
			continue
		}

		err := tx.Model(&model.Booking{}).
			Where("id = ? AND status = ?", booking.ID, model.BookingStatusPending).
			Update("status", model.BookingStatusCancelled).Error
		if err != nil {
			tx.Rollback()
			logger.Error("Failed to expire pending booking", err, map[string]interface{}{
				"booking_id": booking.ID,
			})
			continue
		}

		if err := tx.Commit().Error; err != nil {
			logger.Error("Failed to commit pending-booking expiry", err, map[string]interface{}{
				"booking_id": booking.ID,
			})
			continue
		}

		logger.Info("Expired unpaid pending booking", map[string]interface{}{
			"booking_id": booking.ID,
			"user_id":    booking.UserID,
		})
	}
}

// CompletePastBookings moves confirmed bookings whose slot date has passed
// into completed, which enqueues the mandatory review.
func (s *BookingScheduler) CompletePastBookings() {
	startOfToday := time.Now().Truncate(24 * time.Hour)

	bookings, err := s.bookingRepo.FindPastConfirmed(startOfToday)
	if err != nil {
		logger.Error("Failed to sweep past confirmed bookings", err)
		return
	}

	for _, booking := range bookings {
		if err := s.bookingSvc.CompleteBooking(booking.ID); err != nil {
			logger.Error("Failed to auto-complete booking", err, map[string]interface{}{
				"booking_id": booking.ID,
			})
		}
	}

	if len(bookings) > 0 {
		logger.Info("Auto-completed past bookings", map[string]interface{}{
			"count": len(bookings),
		})
	}
}

// SendReminders notifies users about bookings happening tomorrow.
func (s *BookingScheduler) SendReminders() {
	startOfTomorrow := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	endOfTomorrow := startOfTomorrow.AddDate(0, 0, 1)

	bookings, err := s.bookingRepo.FindUpcomingConfirmed(startOfTomorrow, endOfTomorrow)
	if err != nil {
		logger.Error("Failed to fetch bookings for reminders", err)
		return
	}

	for i := range bookings {
		s.notificationSvc.NotifyBookingReminder(&bookings[i])
	}

	if len(bookings) > 0 {
		logger.Info("Booking reminders sent", map[string]interface{}{
			"count": len(bookings),
		})
	}
}
