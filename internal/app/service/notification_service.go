package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationPusher delivers a notification to a connected client in real
// time. The websocket hub implements it; delivery is best effort.
type NotificationPusher interface {
	PushToUser(userID uint, payload interface{})
}

type NotificationService interface {
	NotifyBookingConfirmed(booking *model.Booking)
	NotifyBookingCancelled(booking *model.Booking, refunded bool)
	NotifyBookingReminder(booking *model.Booking)
	NotifyReviewRequested(booking *model.Booking)
	GetNotifications(userID uint, unreadOnly bool, limit, offset int) ([]model.Notification, int64, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(userID, notificationID uint) error
	MarkAllAsRead(userID uint) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	pusher           NotificationPusher
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	pusher NotificationPusher,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		pusher:           pusher,
	}
}

// deliver persists the notification and pushes it to the user if they are
// connected. Failures are logged, never propagated: notifications must not
// break the booking flow.
func (s *notificationService) deliver(notification *model.Notification) {
	if err := s.notificationRepo.Create(notification); err != nil {
		logger.Error("Failed to persist notification", err, map[string]interface{}{
			"user_id": notification.UserID,
			"type":    notification.Type,
		})
		return
	}
	if s.pusher != nil {
		s.pusher.PushToUser(notification.UserID, notification)
	}
}

func (s *notificationService) NotifyBookingConfirmed(booking *model.Booking) {
	s.deliver(&model.Notification{
		UserID:              booking.UserID,
		Type:                model.NotificationTypeBookingConfirmed,
		Title:               "Booking confirmed",
		Content:             fmt.Sprintf("Your table for %d at %s is confirmed.", booking.PartySize, booking.Restaurant.Name),
		RelatedBookingID:    &booking.ID,
		RelatedRestaurantID: &booking.RestaurantID,
	})
}

func (s *notificationService) NotifyBookingCancelled(booking *model.Booking, refunded bool) {
	content := fmt.Sprintf("Your booking at %s has been cancelled.", booking.Restaurant.Name)
	if refunded {
		content = fmt.Sprintf("Your booking at %s has been cancelled. HK$%.0f was credited to your account.",
			booking.Restaurant.Name, booking.BookingFee)
	}
	s.deliver(&model.Notification{
		UserID:              booking.UserID,
		Type:                model.NotificationTypeBookingCancelled,
		Title:               "Booking cancelled",
		Content:             content,
		RelatedBookingID:    &booking.ID,
		RelatedRestaurantID: &booking.RestaurantID,
	})
}

func (s *notificationService) NotifyBookingReminder(booking *model.Booking) {
	s.deliver(&model.Notification{
		UserID:              booking.UserID,
		Type:                model.NotificationTypeBookingReminder,
		Title:               "Upcoming booking",
		Content:             fmt.Sprintf("Reminder: your table for %d at %s is coming up.", booking.PartySize, booking.Restaurant.Name),
		RelatedBookingID:    &booking.ID,
		RelatedRestaurantID: &booking.RestaurantID,
	})
}

func (s *notificationService) NotifyReviewRequested(booking *model.Booking) {
	s.deliver(&model.Notification{
		UserID:              booking.UserID,
		Type:                model.NotificationTypeReviewRequest,
		Title:               "How was your visit?",
		Content:             fmt.Sprintf("Tell us about your visit to %s.", booking.Restaurant.Name),
		RelatedBookingID:    &booking.ID,
		RelatedRestaurantID: &booking.RestaurantID,
	})
}

func (s *notificationService) GetNotifications(userID uint, unreadOnly bool, limit, offset int) ([]model.Notification, int64, error) {
	return s.notificationRepo.FindByUserID(userID, unreadOnly, limit, offset)
}

func (s *notificationService) GetUnreadCount(userID uint) (int64, error) {
	return s.notificationRepo.GetUnreadCount(userID)
}

func (s *notificationService) MarkAsRead(userID, notificationID uint) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if notification.UserID != userID {
		return ErrNotificationNotFound
	}
	return s.notificationRepo.MarkAsRead(notificationID)
}

func (s *notificationService) MarkAllAsRead(userID uint) error {
	return s.notificationRepo.MarkAllAsRead(userID)
}
