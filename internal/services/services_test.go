package services

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/repositories/interfaces"
	"dealspot/internal/utils"
	"dealspot/pkg/cache"
	"dealspot/pkg/logger"
	"dealspot/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shared in-memory fakes for the service tests. Each fake guards its state
// with a mutex so concurrency tests exercise real interleavings.

func testLogger() *logger.Logger {
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	if err != nil {
		panic(err)
	}
	log.SetOutput(io.Discard)
	return log
}

// memStore is an in-memory CacheStore.
type memStore struct {
	mu     sync.Mutex
	values map[string][]byte
	sets   map[string]map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		values: map[string][]byte{},
		sets:   map[string]map[string]bool{},
	}
}

func (m *memStore) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	data, ok := m.values[key]
	m.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = data
	m.mu.Unlock()
	return nil
}

func (m *memStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.values, key)
		delete(m.sets, key)
	}
	m.mu.Unlock()
	return nil
}

func (m *memStore) SAdd(ctx context.Context, key string, members ...interface{}) error {
	m.mu.Lock()
	set, ok := m.sets[key]
	if !ok {
		set = map[string]bool{}
		m.sets[key] = set
	}
	for _, member := range members {
		if s, ok := member.(string); ok {
			set[s] = true
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *memStore) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

// fakeDealRepo implements interfaces.DealRepository over a map.
type fakeDealRepo struct {
	mu             sync.Mutex
	deals          map[primitive.ObjectID]*models.Deal
	catalogQueries int
}

func newFakeDealRepo() *fakeDealRepo {
	return &fakeDealRepo{deals: map[primitive.ObjectID]*models.Deal{}}
}

func (r *fakeDealRepo) put(deal *models.Deal) *models.Deal {
	if deal.ID.IsZero() {
		deal.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	r.deals[deal.ID] = deal
	r.mu.Unlock()
	return deal
}

func (r *fakeDealRepo) Create(ctx context.Context, deal *models.Deal) error {
	r.put(deal)
	return nil
}

func (r *fakeDealRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deal, ok := r.deals[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *deal
	return &copied, nil
}

func (r *fakeDealRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deal, ok := r.deals[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "title":
			deal.Title = value.(string)
		case "description":
			deal.Description = value.(string)
		case "original_price":
			deal.OriginalPrice = value.(float64)
		case "discounted_price":
			deal.DiscountedPrice = value.(float64)
		case "discount_percentage":
			deal.DiscountPercentage = value.(float64)
		case "expires_at":
			deal.ExpiresAt = value.(time.Time)
		case "updated_at":
			deal.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (r *fakeDealRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.DealStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deal, ok := r.deals[id]
	if !ok || deal.Status != from {
		return interfaces.ErrNotFound
	}
	deal.Status = to
	deal.UpdatedAt = time.Now()
	return nil
}

func (r *fakeDealRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deal, ok := r.deals[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	deal.Status = models.DealStatusDeleted
	return nil
}

// RedeemOne mirrors the store's atomic conditional increment: the check and
// the write happen under one lock.
func (r *fakeDealRepo) RedeemOne(ctx context.Context, id primitive.ObjectID) (*models.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deal, ok := r.deals[id]
	if !ok || deal.Status != models.DealStatusActive {
		return nil, interfaces.ErrNoInventory
	}
	if deal.QuantityAvailable != nil && deal.QuantityRedeemed >= *deal.QuantityAvailable {
		return nil, interfaces.ErrNoInventory
	}
	deal.QuantityRedeemed++
	if deal.QuantityAvailable != nil && deal.QuantityRedeemed >= *deal.QuantityAvailable {
		deal.Status = models.DealStatusSoldOut
	}
	deal.UpdatedAt = time.Now()
	copied := *deal
	return &copied, nil
}

func (r *fakeDealRepo) activeDeals(filter interfaces.DealListFilter) []*models.Deal {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	var result []*models.Deal
	for _, deal := range r.deals {
		if deal.Status != models.DealStatusActive {
			continue
		}
		if deal.StartsAt.After(now) || !deal.ExpiresAt.After(now) {
			continue
		}
		if len(filter.BusinessIDs) > 0 {
			found := false
			for _, id := range filter.BusinessIDs {
				if deal.BusinessID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		copied := *deal
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *fakeDealRepo) ListActiveByBusinessIDs(ctx context.Context, filter interfaces.DealListFilter, params *utils.PaginationParams) ([]*models.Deal, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogQueries++
	matched := r.activeDeals(filter)
	total := int64(len(matched))
	start := params.GetSkip()
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeDealRepo) ListActiveCandidates(ctx context.Context, filter interfaces.DealListFilter) ([]*models.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogQueries++
	matched := r.activeDeals(filter)
	if filter.Limit > 0 && int64(len(matched)) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *fakeDealRepo) CountByBusinessID(ctx context.Context, businessID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, deal := range r.deals {
		if deal.BusinessID == businessID {
			count++
		}
	}
	return count, nil
}

// fakeBusinessRepo implements interfaces.BusinessRepository.
type fakeBusinessRepo struct {
	mu         sync.Mutex
	businesses map[primitive.ObjectID]*models.Business
}

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{businesses: map[primitive.ObjectID]*models.Business{}}
}

func (r *fakeBusinessRepo) put(business *models.Business) *models.Business {
	if business.ID.IsZero() {
		business.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	r.businesses[business.ID] = business
	r.mu.Unlock()
	return business
}

func (r *fakeBusinessRepo) Create(ctx context.Context, business *models.Business) error {
	r.put(business)
	return nil
}

func (r *fakeBusinessRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	business, ok := r.businesses[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *business
	return &copied, nil
}

func (r *fakeBusinessRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[primitive.ObjectID]*models.Business, len(ids))
	for _, id := range ids {
		if business, ok := r.businesses[id]; ok {
			copied := *business
			result[id] = &copied
		}
	}
	return result, nil
}

func (r *fakeBusinessRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeBusinessRepo) IncrementFollowerCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if business, ok := r.businesses[id]; ok {
		business.FollowerCount += delta
	}
	return nil
}

func (r *fakeBusinessRepo) IncrementDealCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if business, ok := r.businesses[id]; ok {
		business.DealCount += delta
	}
	return nil
}

func (r *fakeBusinessRepo) IncrementTotalRedeemed(ctx context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if business, ok := r.businesses[id]; ok {
		business.TotalRedeemed += delta
	}
	return nil
}

// fakeFollowRepo implements interfaces.FollowRepository.
type fakeFollowRepo struct {
	mu      sync.Mutex
	follows []*models.Follow
}

func (r *fakeFollowRepo) add(follow *models.Follow) {
	if follow.ID.IsZero() {
		follow.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	r.follows = append(r.follows, follow)
	r.mu.Unlock()
}

func (r *fakeFollowRepo) Upsert(ctx context.Context, follow *models.Follow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.follows {
		if existing.UserID == follow.UserID && existing.BusinessID == follow.BusinessID {
			if follow.ID.IsZero() {
				follow.ID = existing.ID
			}
			r.follows[i] = follow
			return nil
		}
	}
	if follow.ID.IsZero() {
		follow.ID = primitive.NewObjectID()
	}
	r.follows = append(r.follows, follow)
	return nil
}

func (r *fakeFollowRepo) GetByUserAndBusiness(ctx context.Context, userID, businessID primitive.ObjectID) (*models.Follow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, follow := range r.follows {
		if follow.UserID == userID && follow.BusinessID == businessID {
			copied := *follow
			return &copied, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeFollowRepo) UpdateStatus(ctx context.Context, userID, businessID primitive.ObjectID, status models.FollowStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, follow := range r.follows {
		if follow.UserID == userID && follow.BusinessID == businessID {
			follow.Status = status
			return nil
		}
	}
	return interfaces.ErrNotFound
}

func (r *fakeFollowRepo) GetActiveBusinessIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []primitive.ObjectID
	for _, follow := range r.follows {
		if follow.UserID == userID && follow.Status == models.FollowStatusActive {
			ids = append(ids, follow.BusinessID)
		}
	}
	return ids, nil
}

func (r *fakeFollowRepo) GetNotifiableFollowerIDs(ctx context.Context, businessID primitive.ObjectID, flashDeal bool) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []primitive.ObjectID
	for _, follow := range r.follows {
		if follow.BusinessID != businessID || follow.Status != models.FollowStatusActive {
			continue
		}
		if flashDeal && !follow.NotifyFlashDeals {
			continue
		}
		if !flashDeal && !follow.NotifyNewDeals {
			continue
		}
		ids = append(ids, follow.UserID)
	}
	return ids, nil
}

func (r *fakeFollowRepo) GetFollowerIDs(ctx context.Context, businessID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []primitive.ObjectID
	for _, follow := range r.follows {
		if follow.BusinessID == businessID && follow.Status != models.FollowStatusUnfollowed {
			ids = append(ids, follow.UserID)
		}
	}
	return ids, nil
}

// fakeBookmarkRepo implements interfaces.BookmarkRepository.
type fakeBookmarkRepo struct {
	mu        sync.Mutex
	bookmarks map[primitive.ObjectID]map[primitive.ObjectID]bool
}

func newFakeBookmarkRepo() *fakeBookmarkRepo {
	return &fakeBookmarkRepo{bookmarks: map[primitive.ObjectID]map[primitive.ObjectID]bool{}}
}

func (r *fakeBookmarkRepo) Add(ctx context.Context, bookmark *models.Bookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.bookmarks[bookmark.UserID]
	if !ok {
		set = map[primitive.ObjectID]bool{}
		r.bookmarks[bookmark.UserID] = set
	}
	if set[bookmark.DealID] {
		return interfaces.ErrDuplicate
	}
	set[bookmark.DealID] = true
	return nil
}

func (r *fakeBookmarkRepo) Remove(ctx context.Context, userID, dealID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.bookmarks[userID]; ok && set[dealID] {
		delete(set, dealID)
		return nil
	}
	return interfaces.ErrNotFound
}

func (r *fakeBookmarkRepo) GetBookmarkedDealIDs(ctx context.Context, userID primitive.ObjectID, dealIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := map[primitive.ObjectID]bool{}
	set := r.bookmarks[userID]
	for _, dealID := range dealIDs {
		if set[dealID] {
			result[dealID] = true
		}
	}
	return result, nil
}

// fakeRedemptionRepo implements interfaces.RedemptionRepository.
type fakeRedemptionRepo struct {
	mu          sync.Mutex
	redemptions []*models.Redemption
}

func (r *fakeRedemptionRepo) Create(ctx context.Context, redemption *models.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	redemption.ID = primitive.NewObjectID()
	r.redemptions = append(r.redemptions, redemption)
	return nil
}

func (r *fakeRedemptionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, redemption := range r.redemptions {
		if redemption.ID == id {
			return redemption, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeRedemptionRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.Redemption
	for _, redemption := range r.redemptions {
		if redemption.UserID == userID {
			matched = append(matched, redemption)
		}
	}
	return matched, int64(len(matched)), nil
}

func (r *fakeRedemptionRepo) GetByDealID(ctx context.Context, dealID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.Redemption
	for _, redemption := range r.redemptions {
		if redemption.DealID == dealID {
			matched = append(matched, redemption)
		}
	}
	return matched, int64(len(matched)), nil
}

func (r *fakeRedemptionRepo) CountByDealAndUser(ctx context.Context, dealID, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, redemption := range r.redemptions {
		if redemption.DealID == dealID && redemption.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRedemptionRepo) all() []*models.Redemption {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Redemption(nil), r.redemptions...)
}

// fakeDeviceRepo implements interfaces.DeviceRepository.
type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices []*models.DeviceRegistration
}

func (r *fakeDeviceRepo) add(device *models.DeviceRegistration) {
	if device.ID.IsZero() {
		device.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	r.devices = append(r.devices, device)
	r.mu.Unlock()
}

func (r *fakeDeviceRepo) Upsert(ctx context.Context, device *models.DeviceRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.devices {
		if existing.UserID == device.UserID && existing.Token == device.Token {
			device.ID = existing.ID
			r.devices[i] = device
			return nil
		}
	}
	device.ID = primitive.NewObjectID()
	r.devices = append(r.devices, device)
	return nil
}

func (r *fakeDeviceRepo) GetActiveByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]*models.DeviceRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[primitive.ObjectID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var result []*models.DeviceRegistration
	for _, device := range r.devices {
		if device.IsActive && wanted[device.UserID] {
			result = append(result, device)
		}
	}
	return result, nil
}

func (r *fakeDeviceRepo) DeactivateTokens(ctx context.Context, tokens []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dead := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		dead[token] = true
	}
	var count int64
	for _, device := range r.devices {
		if device.IsActive && dead[device.Token] {
			device.IsActive = false
			count++
		}
	}
	return count, nil
}

func (r *fakeDeviceRepo) activeTokens() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tokens []string
	for _, device := range r.devices {
		if device.IsActive {
			tokens = append(tokens, device.Token)
		}
	}
	return tokens
}

// fakeNotificationRepo implements interfaces.NotificationRepository.
type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*models.Notification
	batchFail     bool
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	return r.CreateBatch(ctx, []*models.Notification{notification})
}

func (r *fakeNotificationRepo) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.batchFail {
		return context.DeadlineExceeded
	}
	for _, notification := range notifications {
		notification.ID = primitive.NewObjectID()
		r.notifications = append(r.notifications, notification)
	}
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notification := range r.notifications {
		if notification.ID == id {
			return notification, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeNotificationRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			matched = append(matched, notification)
		}
	}
	return matched, int64(len(matched)), nil
}

func (r *fakeNotificationRepo) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, notification := range r.notifications {
		if notification.UserID == userID && notification.Status == models.NotificationStatusUnread {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notification := range r.notifications {
		if notification.ID == id {
			notification.Status = models.NotificationStatusRead
			now := time.Now()
			notification.ReadAt = &now
			return nil
		}
	}
	return interfaces.ErrNotFound
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, notification := range r.notifications {
		if notification.UserID == userID && notification.Status == models.NotificationStatusUnread {
			notification.Status = models.NotificationStatusRead
			notification.ReadAt = &now
		}
	}
	return nil
}

func (r *fakeNotificationRepo) all() []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Notification(nil), r.notifications...)
}

// fakeUserRepo implements interfaces.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
}

func (r *fakeUserRepo) put(user *models.User) *models.User {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	r.users[user.ID] = user
	r.mu.Unlock()
	return user
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[primitive.ObjectID]*models.User, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			copied := *user
			result[id] = &copied
		}
	}
	return result, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeUserRepo) GetUsersWithinBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.User
	for _, user := range r.users {
		if user.Status != models.UserStatusActive || user.DefaultLocation == nil {
			continue
		}
		lat, lng := user.DefaultLocation.Lat, user.DefaultLocation.Lng
		if lat >= minLat && lat <= maxLat && lng >= minLng && lng <= maxLng {
			copied := *user
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) GetIDsBySegment(ctx context.Context, filter interfaces.UserSegmentFilter) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []primitive.ObjectID
	for _, user := range r.users {
		if user.Status != models.UserStatusActive {
			continue
		}
		if filter.UserType != "" && user.UserType != filter.UserType {
			continue
		}
		if !filter.CreatedAfter.IsZero() && !user.CreatedAt.After(filter.CreatedAfter) {
			continue
		}
		if !filter.LastActiveAfter.IsZero() {
			if user.LastActiveAt == nil || !user.LastActiveAt.After(filter.LastActiveAfter) {
				continue
			}
		}
		ids = append(ids, user.ID)
	}
	return ids, nil
}

// fakeBroadcastRepo implements interfaces.BroadcastRepository.
type fakeBroadcastRepo struct {
	mu         sync.Mutex
	broadcasts map[primitive.ObjectID]*models.Broadcast
	clicks     []*models.LinkClick
}

func newFakeBroadcastRepo() *fakeBroadcastRepo {
	return &fakeBroadcastRepo{broadcasts: map[primitive.ObjectID]*models.Broadcast{}}
}

func (r *fakeBroadcastRepo) Create(ctx context.Context, broadcast *models.Broadcast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	broadcast.ID = primitive.NewObjectID()
	copied := *broadcast
	r.broadcasts[broadcast.ID] = &copied
	return nil
}

func (r *fakeBroadcastRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	broadcast, ok := r.broadcasts[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *broadcast
	return &copied, nil
}

func (r *fakeBroadcastRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	broadcast, ok := r.broadcasts[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			broadcast.Status = value.(models.BroadcastStatus)
		case "messages_sent":
			broadcast.MessagesSent = value.(int)
		case "conversations_created":
			broadcast.ConversationsCreated = value.(int)
		case "errors_count":
			broadcast.ErrorsCount = value.(int)
		case "errors":
			broadcast.Errors = value.([]models.BroadcastError)
		case "sent_at":
			sentAt := value.(time.Time)
			broadcast.SentAt = &sentAt
		}
	}
	return nil
}

func (r *fakeBroadcastRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Broadcast, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Broadcast
	for _, broadcast := range r.broadcasts {
		copied := *broadcast
		result = append(result, &copied)
	}
	return result, int64(len(result)), nil
}

func (r *fakeBroadcastRepo) RecordLinkClick(ctx context.Context, click *models.LinkClick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	click.ID = primitive.NewObjectID()
	r.clicks = append(r.clicks, click)
	return nil
}

func (r *fakeBroadcastRepo) GetLinkClickStats(ctx context.Context, broadcastID primitive.ObjectID) ([]*models.LinkClickStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := map[string]int64{}
	uniques := map[string]map[primitive.ObjectID]bool{}
	for _, click := range r.clicks {
		if click.BroadcastID != broadcastID {
			continue
		}
		totals[click.URL]++
		if uniques[click.URL] == nil {
			uniques[click.URL] = map[primitive.ObjectID]bool{}
		}
		uniques[click.URL][click.UserID] = true
	}
	var stats []*models.LinkClickStats
	for url, total := range totals {
		stats = append(stats, &models.LinkClickStats{
			URL:            url,
			TotalClicks:    total,
			UniqueClickers: int64(len(uniques[url])),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].TotalClicks > stats[j].TotalClicks })
	return stats, nil
}

// fakeConversationRepo implements interfaces.ConversationRepository.
type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[[2]primitive.ObjectID]*models.Conversation
	messages      []*models.ConversationMessage
	failFor       map[primitive.ObjectID]bool
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: map[[2]primitive.ObjectID]*models.Conversation{},
		failFor:       map[primitive.ObjectID]bool{},
	}
}

func pairKey(a, b primitive.ObjectID) [2]primitive.ObjectID {
	if a.Hex() < b.Hex() {
		return [2]primitive.ObjectID{a, b}
	}
	return [2]primitive.ObjectID{b, a}
}

func (r *fakeConversationRepo) FindOrCreateDirect(ctx context.Context, senderID, recipientID primitive.ObjectID) (*models.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[recipientID] {
		return nil, false, context.DeadlineExceeded
	}
	key := pairKey(senderID, recipientID)
	if conversation, ok := r.conversations[key]; ok {
		return conversation, false, nil
	}
	conversation := &models.Conversation{
		ID:           primitive.NewObjectID(),
		Participants: []primitive.ObjectID{senderID, recipientID},
		Status:       models.ConversationStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.conversations[key] = conversation
	return conversation, true, nil
}

func (r *fakeConversationRepo) AppendMessage(ctx context.Context, message *models.ConversationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.ID = primitive.NewObjectID()
	r.messages = append(r.messages, message)
	return nil
}

// fakePushProvider implements push.PushProvider with scripted per-token
// outcomes.
type fakePushProvider struct {
	mu sync.Mutex
	// unregistered marks tokens to report as gone; failed marks transient
	// failures.
	unregistered map[string]bool
	failed       map[string]bool
	gatewayErr   error
	calls        []*push.MulticastRequest
}

func newFakePushProvider() *fakePushProvider {
	return &fakePushProvider{
		unregistered: map[string]bool{},
		failed:       map[string]bool{},
	}
}

func (p *fakePushProvider) SendNotification(ctx context.Context, request *push.NotificationRequest) (*push.NotificationResponse, error) {
	return &push.NotificationResponse{Success: true, Token: request.Token}, nil
}

func (p *fakePushProvider) SendMulticast(ctx context.Context, request *push.MulticastRequest) (*push.MulticastResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, request)
	if p.gatewayErr != nil {
		return nil, p.gatewayErr
	}
	result := &push.MulticastResult{}
	for _, token := range request.Tokens {
		tokenResult := push.TokenResult{Token: token, Success: true}
		switch {
		case p.unregistered[token]:
			tokenResult.Success = false
			tokenResult.Unregistered = true
			tokenResult.Error = "unregistered"
		case p.failed[token]:
			tokenResult.Success = false
			tokenResult.Error = "unavailable"
		}
		if tokenResult.Success {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
		result.Results = append(result.Results, tokenResult)
	}
	return result, nil
}

func (p *fakePushProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
