package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type broadcastFixture struct {
	broadcastRepo    *fakeBroadcastRepo
	userRepo         *fakeUserRepo
	conversationRepo *fakeConversationRepo
	notificationRepo *fakeNotificationRepo
	service          BroadcastService
}

func newBroadcastFixture() *broadcastFixture {
	log := testLogger()
	f := &broadcastFixture{
		broadcastRepo:    newFakeBroadcastRepo(),
		userRepo:         newFakeUserRepo(),
		conversationRepo: newFakeConversationRepo(),
		notificationRepo: &fakeNotificationRepo{},
	}
	notifications := NewNotificationService(f.notificationRepo, &fakeDeviceRepo{}, nil, time.Second, log)
	f.service = NewBroadcastService(f.broadcastRepo, f.userRepo, f.conversationRepo, notifications, log)
	return f
}

func (f *broadcastFixture) admin() *models.User {
	return f.userRepo.put(&models.User{
		UserType:  models.UserTypeAdmin,
		Status:    models.UserStatusActive,
		CreatedAt: time.Now().Add(-365 * 24 * time.Hour),
	})
}

func (f *broadcastFixture) consumer(age time.Duration, lastActive *time.Duration) *models.User {
	user := &models.User{
		UserType:  models.UserTypeConsumer,
		Status:    models.UserStatusActive,
		CreatedAt: time.Now().Add(-age),
	}
	if lastActive != nil {
		activeAt := time.Now().Add(-*lastActive)
		user.LastActiveAt = &activeAt
	}
	return f.userRepo.put(user)
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestSendBroadcastToAllUsers(t *testing.T) {
	f := newBroadcastFixture()
	admin := f.admin()
	f.consumer(time.Hour, nil)
	f.consumer(48*time.Hour, nil)

	broadcast, err := f.service.Send(context.Background(), admin.ID, &BroadcastInput{
		Message:     "Grand opening this weekend!",
		TargetGroup: models.BroadcastTargetAll,
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if broadcast.Status != models.BroadcastStatusSent {
		t.Errorf("status = %s, want sent", broadcast.Status)
	}
	if broadcast.UsersTargeted != 2 {
		t.Errorf("users_targeted = %d, want 2 (admin excluded)", broadcast.UsersTargeted)
	}
	if broadcast.MessagesSent != 2 {
		t.Errorf("messages_sent = %d, want 2", broadcast.MessagesSent)
	}
	if broadcast.ConversationsCreated != 2 {
		t.Errorf("conversations_created = %d, want 2", broadcast.ConversationsCreated)
	}
	if broadcast.SentAt == nil {
		t.Error("sent_at not set")
	}
	if len(f.conversationRepo.messages) != 2 {
		t.Errorf("appended messages = %d, want 2", len(f.conversationRepo.messages))
	}
	for _, message := range f.conversationRepo.messages {
		if message.Type != models.MessageTypeBroadcast {
			t.Errorf("message type = %s, want broadcast", message.Type)
		}
		if message.BroadcastID == nil || *message.BroadcastID != broadcast.ID {
			t.Error("message not linked to its broadcast")
		}
	}
}

func TestSendReusesExistingConversations(t *testing.T) {
	f := newBroadcastFixture()
	admin := f.admin()
	user := f.consumer(time.Hour, nil)

	// A prior thread between admin and user exists.
	if _, _, err := f.conversationRepo.FindOrCreateDirect(context.Background(), admin.ID, user.ID); err != nil {
		t.Fatal(err)
	}

	broadcast, err := f.service.Send(context.Background(), admin.ID, &BroadcastInput{
		Message:     "Hello again",
		TargetGroup: models.BroadcastTargetAll,
	})
	if err != nil {
		t.Fatal(err)
	}
	if broadcast.ConversationsCreated != 0 {
		t.Errorf("conversations_created = %d, want 0 (thread reused)", broadcast.ConversationsCreated)
	}
	if broadcast.MessagesSent != 1 {
		t.Errorf("messages_sent = %d, want 1", broadcast.MessagesSent)
	}
}

func TestSendSegmentsByTargetGroup(t *testing.T) {
	f := newBroadcastFixture()
	admin := f.admin()
	newbie := f.consumer(time.Hour, nil)
	veteran := f.consumer(90*24*time.Hour, durationPtr(time.Hour))
	dormant := f.consumer(200*24*time.Hour, durationPtr(120*24*time.Hour))
	owner := f.userRepo.put(&models.User{
		UserType:  models.UserTypeBusinessOwner,
		Status:    models.UserStatusActive,
		CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
	})

	cases := []struct {
		name   string
		target models.BroadcastTarget
		want   map[primitive.ObjectID]bool
	}{
		{"new users", models.BroadcastTargetNewUsers, map[primitive.ObjectID]bool{newbie.ID: true}},
		{"active users", models.BroadcastTargetActiveUsers, map[primitive.ObjectID]bool{veteran.ID: true}},
		{"business owners", models.BroadcastTargetBusinessOwners, map[primitive.ObjectID]bool{owner.ID: true}},
		{"consumers", models.BroadcastTargetConsumers, map[primitive.ObjectID]bool{newbie.ID: true, veteran.ID: true, dormant.ID: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			broadcast, err := f.service.Send(context.Background(), admin.ID, &BroadcastInput{
				Message:     "Segment test",
				TargetGroup: tc.target,
			})
			if err != nil {
				t.Fatal(err)
			}
			if broadcast.UsersTargeted != len(tc.want) {
				t.Errorf("users_targeted = %d, want %d", broadcast.UsersTargeted, len(tc.want))
			}
		})
	}
}

func TestSendRejectsUnknownTargetGroup(t *testing.T) {
	f := newBroadcastFixture()
	_, err := f.service.Send(context.Background(), f.admin().ID, &BroadcastInput{
		Message:     "Hello",
		TargetGroup: models.BroadcastTarget("everyone_ever"),
	})
	if !IsInvalidState(err) {
		t.Fatalf("want invalid-state rejection, got %v", err)
	}
}

func TestSendRejectsEmptyAndOversizedMessages(t *testing.T) {
	f := newBroadcastFixture()
	admin := f.admin()

	_, err := f.service.Send(context.Background(), admin.ID, &BroadcastInput{
		Message:     "   ",
		TargetGroup: models.BroadcastTargetAll,
	})
	if !IsInvalidState(err) {
		t.Fatalf("want rejection for blank message, got %v", err)
	}

	_, err = f.service.Send(context.Background(), admin.ID, &BroadcastInput{
		Message:     strings.Repeat("x", utils.MaxBroadcastLength+1),
		TargetGroup: models.BroadcastTargetAll,
	})
	if !IsInvalidState(err) {
		t.Fatalf("want rejection for oversized message, got %v", err)
	}
}

func TestSendDetectsLinksOnRecord(t *testing.T) {
	f := newBroadcastFixture()
	f.consumer(time.Hour, nil)

	broadcast, err := f.service.Send(context.Background(), f.admin().ID, &BroadcastInput{
		Message:     "Visit https://example.com/sale and www.shop.com today",
		TargetGroup: models.BroadcastTargetAll,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(broadcast.DetectedLinks) != 2 {
		t.Fatalf("detected links = %d, want 2", len(broadcast.DetectedLinks))
	}
	if broadcast.DetectedLinks[0].URL != "https://example.com/sale" {
		t.Errorf("first link = %q", broadcast.DetectedLinks[0].URL)
	}
}

func TestSendAccumulatesPerUserFailures(t *testing.T) {
	f := newBroadcastFixture()
	admin := f.admin()
	good := f.consumer(time.Hour, nil)
	bad := f.consumer(time.Hour, nil)
	f.conversationRepo.failFor[bad.ID] = true

	broadcast, err := f.service.Send(context.Background(), admin.ID, &BroadcastInput{
		Message:     "Partial delivery",
		TargetGroup: models.BroadcastTargetAll,
	})
	if err != nil {
		t.Fatalf("per-user failures must not fail the run: %v", err)
	}
	if broadcast.Status != models.BroadcastStatusSent {
		t.Errorf("status = %s, want sent", broadcast.Status)
	}
	if broadcast.MessagesSent != 1 {
		t.Errorf("messages_sent = %d, want 1", broadcast.MessagesSent)
	}
	if broadcast.ErrorsCount != 1 {
		t.Errorf("errors_count = %d, want 1", broadcast.ErrorsCount)
	}
	if len(broadcast.Errors) != 1 || broadcast.Errors[0].UserID != bad.ID {
		t.Error("failure not attributed to the failing user")
	}
	if len(f.conversationRepo.messages) != 1 || f.conversationRepo.messages[0].ConversationID == primitive.NilObjectID {
		t.Error("good user's message missing")
	}
	_ = good
}

func TestSendScheduledBroadcastIsStoredNotSent(t *testing.T) {
	f := newBroadcastFixture()
	f.consumer(time.Hour, nil)
	scheduledAt := time.Now().Add(2 * time.Hour)

	broadcast, err := f.service.Send(context.Background(), f.admin().ID, &BroadcastInput{
		Message:     "Coming soon",
		TargetGroup: models.BroadcastTargetAll,
		ScheduledAt: &scheduledAt,
	})
	if err != nil {
		t.Fatal(err)
	}
	if broadcast.Status != models.BroadcastStatusScheduled {
		t.Errorf("status = %s, want scheduled", broadcast.Status)
	}
	if broadcast.MessagesSent != 0 || len(f.conversationRepo.messages) != 0 {
		t.Error("scheduled broadcast must not deliver anything")
	}
}

func TestTrackClickAndStats(t *testing.T) {
	f := newBroadcastFixture()
	f.consumer(time.Hour, nil)
	broadcast, err := f.service.Send(context.Background(), f.admin().ID, &BroadcastInput{
		Message:     "Sale at https://example.com/sale",
		TargetGroup: models.BroadcastTargetAll,
	})
	if err != nil {
		t.Fatal(err)
	}

	clicker := primitive.NewObjectID()
	url := "https://example.com/sale"
	// Two clicks from one user, one from another: three total, two unique.
	for i := 0; i < 2; i++ {
		if err := f.service.TrackClick(context.Background(), broadcast.ID, clicker, url); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.service.TrackClick(context.Background(), broadcast.ID, primitive.NewObjectID(), url); err != nil {
		t.Fatal(err)
	}

	stats, err := f.service.Stats(context.Background(), broadcast.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.LinkClicks) != 1 {
		t.Fatalf("link click rows = %d, want 1", len(stats.LinkClicks))
	}
	if stats.LinkClicks[0].TotalClicks != 3 {
		t.Errorf("total clicks = %d, want 3", stats.LinkClicks[0].TotalClicks)
	}
	if stats.LinkClicks[0].UniqueClickers != 2 {
		t.Errorf("unique clickers = %d, want 2", stats.LinkClicks[0].UniqueClickers)
	}
}

func TestTrackClickValidation(t *testing.T) {
	f := newBroadcastFixture()
	if err := f.service.TrackClick(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), ""); !IsInvalidState(err) {
		t.Errorf("want invalid-state for empty url, got %v", err)
	}
	if err := f.service.TrackClick(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "https://x.com"); err != ErrBroadcastNotFound {
		t.Errorf("want ErrBroadcastNotFound, got %v", err)
	}
}

func TestStatsMissingBroadcast(t *testing.T) {
	f := newBroadcastFixture()
	if _, err := f.service.Stats(context.Background(), primitive.NewObjectID()); err != ErrBroadcastNotFound {
		t.Fatalf("want ErrBroadcastNotFound, got %v", err)
	}
}
