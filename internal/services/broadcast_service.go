package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/repositories/interfaces"
	"dealspot/internal/utils"
	"dealspot/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BroadcastInput is the admin-facing request to message a user segment.
type BroadcastInput struct {
	Message     string
	TargetGroup models.BroadcastTarget
	ScheduledAt *time.Time
}

// BroadcastStats is the read-side view of a broadcast and its link engagement.
type BroadcastStats struct {
	Broadcast  *models.Broadcast        `json:"broadcast"`
	LinkClicks []*models.LinkClickStats `json:"link_clicks"`
}

type BroadcastService interface {
	// Send resolves the target segment, creates the Broadcast record, and
	// delivers the message to every target user: append to the admin↔user
	// conversation (creating it when absent) plus a notification dispatch.
	// Individual delivery failures are accumulated, never aborting the run.
	// A future ScheduledAt stores the broadcast in scheduled status without
	// sending.
	Send(ctx context.Context, adminID primitive.ObjectID, input *BroadcastInput) (*models.Broadcast, error)

	TrackClick(ctx context.Context, broadcastID, userID primitive.ObjectID, url string) error
	Stats(ctx context.Context, broadcastID primitive.ObjectID) (*BroadcastStats, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Broadcast, int64, error)
}

type broadcastService struct {
	broadcastRepo    interfaces.BroadcastRepository
	userRepo         interfaces.UserRepository
	conversationRepo interfaces.ConversationRepository
	notifications    NotificationService
	logger           *logger.Logger
}

func NewBroadcastService(
	broadcastRepo interfaces.BroadcastRepository,
	userRepo interfaces.UserRepository,
	conversationRepo interfaces.ConversationRepository,
	notifications NotificationService,
	log *logger.Logger,
) BroadcastService {
	return &broadcastService{
		broadcastRepo:    broadcastRepo,
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		notifications:    notifications,
		logger:           log,
	}
}

func (s *broadcastService) Send(ctx context.Context, adminID primitive.ObjectID, input *BroadcastInput) (*models.Broadcast, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, NewInvalidStateError("broadcast message is empty")
	}
	if len(message) > utils.MaxBroadcastLength {
		return nil, NewInvalidStateError(fmt.Sprintf("broadcast message exceeds %d characters", utils.MaxBroadcastLength))
	}

	filter, err := segmentFilter(input.TargetGroup)
	if err != nil {
		return nil, err
	}

	targetIDs, err := s.userRepo.GetIDsBySegment(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target segment: %w", err)
	}

	// The sender never messages themselves.
	filtered := targetIDs[:0]
	for _, id := range targetIDs {
		if id != adminID {
			filtered = append(filtered, id)
		}
	}
	targetIDs = filtered

	now := time.Now()
	broadcast := &models.Broadcast{
		AdminID:       adminID,
		Message:       message,
		TargetGroup:   input.TargetGroup,
		Status:        models.BroadcastStatusScheduled,
		UsersTargeted: len(targetIDs),
		DetectedLinks: utils.DetectLinks(message),
		ScheduledAt:   input.ScheduledAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.broadcastRepo.Create(ctx, broadcast); err != nil {
		return nil, fmt.Errorf("failed to create broadcast: %w", err)
	}

	// A future schedule is stored, not sent. There is no scheduler loop;
	// sending a scheduled broadcast is a separate admin action.
	if input.ScheduledAt != nil && input.ScheduledAt.After(now) {
		return broadcast, nil
	}

	if err := s.broadcastRepo.Update(ctx, broadcast.ID, map[string]interface{}{
		"status": models.BroadcastStatusSending,
	}); err != nil {
		return nil, fmt.Errorf("failed to mark broadcast sending: %w", err)
	}
	broadcast.Status = models.BroadcastStatusSending

	s.deliver(ctx, broadcast, targetIDs)

	sentAt := time.Now()
	updates := map[string]interface{}{
		"status":                models.BroadcastStatusSent,
		"messages_sent":         broadcast.MessagesSent,
		"conversations_created": broadcast.ConversationsCreated,
		"errors_count":          broadcast.ErrorsCount,
		"sent_at":               sentAt,
	}
	if len(broadcast.Errors) > 0 {
		updates["errors"] = broadcast.Errors
	}
	if err := s.broadcastRepo.Update(ctx, broadcast.ID, updates); err != nil {
		s.logger.WithError(err).WithBroadcastID(broadcast.ID).Error("Failed to finalize broadcast record")
	}
	broadcast.Status = models.BroadcastStatusSent
	broadcast.SentAt = &sentAt

	s.logger.WithBroadcastID(broadcast.ID).WithFields(map[string]interface{}{
		"target_group":          broadcast.TargetGroup,
		"users_targeted":        broadcast.UsersTargeted,
		"messages_sent":         broadcast.MessagesSent,
		"conversations_created": broadcast.ConversationsCreated,
		"errors":                broadcast.ErrorsCount,
	}).Info("Broadcast completed")

	return broadcast, nil
}

// deliver appends the broadcast message to each target's conversation with
// the admin, creating the thread when absent, then hands the delivered set to
// the notification dispatcher. Per-user failures are recorded on the
// broadcast and the run continues.
func (s *broadcastService) deliver(ctx context.Context, broadcast *models.Broadcast, targetIDs []primitive.ObjectID) {
	delivered := make([]primitive.ObjectID, 0, len(targetIDs))

	for _, userID := range targetIDs {
		conversation, created, err := s.conversationRepo.FindOrCreateDirect(ctx, broadcast.AdminID, userID)
		if err != nil {
			s.recordDeliveryError(broadcast, userID, err)
			continue
		}
		if created {
			broadcast.ConversationsCreated++
		}

		err = s.conversationRepo.AppendMessage(ctx, &models.ConversationMessage{
			ConversationID: conversation.ID,
			SenderID:       broadcast.AdminID,
			Type:           models.MessageTypeBroadcast,
			Content:        broadcast.Message,
			BroadcastID:    &broadcast.ID,
			CreatedAt:      time.Now(),
		})
		if err != nil {
			s.recordDeliveryError(broadcast, userID, err)
			continue
		}

		broadcast.MessagesSent++
		delivered = append(delivered, userID)
	}

	if len(delivered) == 0 {
		return
	}

	// Push + in-app notification rows ride the shared dispatcher; its
	// failures stay inside it and never alter the broadcast counters.
	s.notifications.DispatchAsync(delivered, &NotificationPayload{
		Type:    models.NotificationTypeBroadcast,
		Title:   "Announcement",
		Message: broadcast.Message,
		Data: map[string]string{
			"broadcast_id": broadcast.ID.Hex(),
		},
	})
}

func (s *broadcastService) recordDeliveryError(broadcast *models.Broadcast, userID primitive.ObjectID, err error) {
	broadcast.ErrorsCount++
	broadcast.Errors = append(broadcast.Errors, models.BroadcastError{
		UserID: userID,
		Error:  err.Error(),
	})
	s.logger.WithError(err).WithBroadcastID(broadcast.ID).WithUserID(userID).Warn("Broadcast delivery failed for user")
}

// segmentFilter maps a target group to its user predicate.
func segmentFilter(target models.BroadcastTarget) (interfaces.UserSegmentFilter, error) {
	now := time.Now()
	switch target {
	case models.BroadcastTargetAll:
		return interfaces.UserSegmentFilter{}, nil
	case models.BroadcastTargetNewUsers:
		return interfaces.UserSegmentFilter{CreatedAfter: now.Add(-utils.NewUserWindow)}, nil
	case models.BroadcastTargetActiveUsers:
		return interfaces.UserSegmentFilter{LastActiveAfter: now.Add(-utils.ActiveUserWindow)}, nil
	case models.BroadcastTargetBusinessOwners:
		return interfaces.UserSegmentFilter{UserType: models.UserTypeBusinessOwner}, nil
	case models.BroadcastTargetConsumers:
		return interfaces.UserSegmentFilter{UserType: models.UserTypeConsumer}, nil
	default:
		return interfaces.UserSegmentFilter{}, NewInvalidStateError(fmt.Sprintf("unknown target group %q", target))
	}
}

func (s *broadcastService) TrackClick(ctx context.Context, broadcastID, userID primitive.ObjectID, url string) error {
	if strings.TrimSpace(url) == "" {
		return NewInvalidStateError("link url is required")
	}

	if _, err := s.broadcastRepo.GetByID(ctx, broadcastID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrBroadcastNotFound
		}
		return fmt.Errorf("failed to load broadcast: %w", err)
	}

	return s.broadcastRepo.RecordLinkClick(ctx, &models.LinkClick{
		BroadcastID: broadcastID,
		UserID:      userID,
		URL:         url,
		ClickedAt:   time.Now(),
	})
}

func (s *broadcastService) Stats(ctx context.Context, broadcastID primitive.ObjectID) (*BroadcastStats, error) {
	broadcast, err := s.broadcastRepo.GetByID(ctx, broadcastID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrBroadcastNotFound
		}
		return nil, fmt.Errorf("failed to load broadcast: %w", err)
	}

	clicks, err := s.broadcastRepo.GetLinkClickStats(ctx, broadcastID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate link clicks: %w", err)
	}

	return &BroadcastStats{
		Broadcast:  broadcast,
		LinkClicks: clicks,
	}, nil
}

func (s *broadcastService) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Broadcast, int64, error) {
	return s.broadcastRepo.List(ctx, params)
}
