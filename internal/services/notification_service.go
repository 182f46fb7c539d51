package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/repositories/interfaces"
	"dealspot/internal/utils"
	"dealspot/pkg/logger"
	"dealspot/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationPayload is the dispatcher input: one message addressed to a set
// of users, with routing hints derived from the notification type.
type NotificationPayload struct {
	Type     models.NotificationType
	Title    string
	Message  string
	Data     map[string]string
	ImageURL string
	DeepLink string
}

// DispatchStats summarizes one fan-out run.
type DispatchStats struct {
	Targets            int
	NotificationsSaved int
	PushSent           int
	PushFailed         int
	TokensDeactivated  int
}

type NotificationService interface {
	// Dispatch writes one durable notification row per target user, then
	// attempts push delivery to their active devices. Push failure never
	// fails the call; only the durable rows are guaranteed.
	Dispatch(ctx context.Context, userIDs []primitive.ObjectID, payload *NotificationPayload) (*DispatchStats, error)

	// DispatchAsync runs Dispatch on its own goroutine with a bounded
	// timeout. Errors are logged and swallowed; the caller never waits.
	DispatchAsync(userIDs []primitive.ObjectID, payload *NotificationPayload)

	// User-facing notification history
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error

	// Device registry
	RegisterDevice(ctx context.Context, userID primitive.ObjectID, token string, platform models.DevicePlatform) error
}

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	deviceRepo       interfaces.DeviceRepository
	pushProvider     push.PushProvider
	dispatchTimeout  time.Duration
	logger           *logger.Logger
}

// NewNotificationService builds the dispatcher. pushProvider may be nil, in
// which case dispatch only writes the durable rows.
func NewNotificationService(
	notificationRepo interfaces.NotificationRepository,
	deviceRepo interfaces.DeviceRepository,
	pushProvider push.PushProvider,
	dispatchTimeout time.Duration,
	log *logger.Logger,
) NotificationService {
	if dispatchTimeout <= 0 {
		dispatchTimeout = utils.PushDispatchTimeout
	}
	return &notificationService{
		notificationRepo: notificationRepo,
		deviceRepo:       deviceRepo,
		pushProvider:     pushProvider,
		dispatchTimeout:  dispatchTimeout,
		logger:           log,
	}
}

func (s *notificationService) Dispatch(ctx context.Context, userIDs []primitive.ObjectID, payload *NotificationPayload) (*DispatchStats, error) {
	stats := &DispatchStats{Targets: len(userIDs)}
	if len(userIDs) == 0 {
		return stats, nil
	}

	now := time.Now()
	notifications := make([]*models.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, &models.Notification{
			UserID:    userID,
			Type:      payload.Type,
			Status:    models.NotificationStatusUnread,
			Title:     payload.Title,
			Message:   payload.Message,
			Data:      toNotificationData(payload.Data),
			ImageURL:  payload.ImageURL,
			DeepLink:  payload.DeepLink,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	// Durable rows come first: in-app history exists whether or not any push
	// goes out.
	if err := s.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		return stats, fmt.Errorf("failed to save notifications: %w", err)
	}
	stats.NotificationsSaved = len(notifications)

	if s.pushProvider == nil {
		return stats, nil
	}

	devices, err := s.deviceRepo.GetActiveByUserIDs(ctx, userIDs)
	if err != nil {
		s.logger.WithError(err).Warn("Device lookup failed, skipping push delivery")
		return stats, nil
	}
	if len(devices) == 0 {
		return stats, nil
	}

	tokens := make([]string, 0, len(devices))
	for _, device := range devices {
		tokens = append(tokens, device.Token)
	}

	// The gateway caps multicast size, so large audiences go out in batches.
	channelID, category, priority := routingForType(payload.Type)
	var deadTokens []string
	for start := 0; start < len(tokens); start += utils.MaxMulticastTokens {
		end := start + utils.MaxMulticastTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		result, err := s.pushProvider.SendMulticast(ctx, &push.MulticastRequest{
			Tokens:    batch,
			Title:     payload.Title,
			Body:      payload.Message,
			Data:      payload.Data,
			ImageURL:  payload.ImageURL,
			ChannelID: channelID,
			Category:  category,
			Priority:  priority,
		})
		if err != nil {
			// Gateway unreachable. The rows are saved; nothing to reconcile
			// for this batch, and later batches would hit the same wall.
			s.logger.WithError(err).Error("Push gateway unreachable")
			stats.PushFailed += len(tokens) - start
			break
		}

		stats.PushSent += result.SuccessCount
		stats.PushFailed += result.FailureCount

		// Tokens the gateway reports as gone get deactivated in bulk. Other
		// failures may be transient and the registration stays active.
		for _, tokenResult := range result.Results {
			if tokenResult.Unregistered {
				deadTokens = append(deadTokens, tokenResult.Token)
			}
		}
	}

	if len(deadTokens) > 0 {
		deactivated, err := s.deviceRepo.DeactivateTokens(ctx, deadTokens)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to deactivate dead device tokens")
		} else {
			stats.TokensDeactivated = int(deactivated)
		}
	}

	s.logger.LogDispatchResult(stats.Targets, stats.PushSent, stats.PushFailed, stats.TokensDeactivated, map[string]interface{}{
		"type": payload.Type,
	})

	return stats, nil
}

func (s *notificationService) DispatchAsync(userIDs []primitive.ObjectID, payload *NotificationPayload) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorf("Dispatch panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		if _, err := s.Dispatch(ctx, userIDs, payload); err != nil {
			s.logger.WithError(err).Error("Async dispatch failed")
		}
	}()
}

// routingForType maps a notification type to platform routing metadata.
func routingForType(notificationType models.NotificationType) (channelID, category, priority string) {
	switch notificationType {
	case models.NotificationTypeFlashDeal:
		return "flash_deals", "FLASH_DEAL", "high"
	case models.NotificationTypeNewDeal:
		return "deals", "NEW_DEAL", "normal"
	case models.NotificationTypeBroadcast:
		return "announcements", "BROADCAST", "normal"
	default:
		return "general", "GENERAL", "normal"
	}
}

func toNotificationData(data map[string]string) map[string]interface{} {
	if len(data) == 0 {
		return nil
	}
	converted := make(map[string]interface{}, len(data))
	for key, value := range data {
		converted[key] = value
	}
	return converted
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	return s.notificationRepo.GetByUserID(ctx, userID, params)
}

func (s *notificationService) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.notificationRepo.GetUnreadCount(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	notification, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to load notification: %w", err)
	}
	if notification.UserID != userID {
		return ErrForbidden
	}
	return s.notificationRepo.MarkAsRead(ctx, notificationID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.notificationRepo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) RegisterDevice(ctx context.Context, userID primitive.ObjectID, token string, platform models.DevicePlatform) error {
	if token == "" {
		return NewInvalidStateError("device token is required")
	}

	now := time.Now()
	return s.deviceRepo.Upsert(ctx, &models.DeviceRegistration{
		UserID:     userID,
		Token:      token,
		Platform:   platform,
		IsActive:   true,
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}
