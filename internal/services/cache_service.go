package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/utils"
	"dealspot/pkg/cache"
	"dealspot/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CacheStore is the key/value contract the cache gateway needs; satisfied by
// pkg/cache.RedisCache and by the in-memory store used in tests. Pattern or
// prefix deletion is deliberately absent: invalidation is exact, driven by
// per-namespace key sets.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...interface{}) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// CacheService is the read-heavy-path façade: TTL'd get/set, a
// compute-if-absent wrapper, and namespaced invalidation. Cache failures
// degrade to store reads and are logged, never propagated.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, keys ...string)

	// Remember returns the cached value for key into dest, computing and
	// caching it on a miss. The computed value is also tracked under the
	// given namespaces for later invalidation.
	Remember(ctx context.Context, key string, expiration time.Duration, dest interface{}, namespaces []string, compute func(context.Context) (interface{}, error)) error

	// InvalidateNamespace deletes every key tracked under the namespace.
	InvalidateNamespace(ctx context.Context, namespace string)

	// Deal-specific helpers
	CacheDeal(ctx context.Context, deal *models.Deal)
	GetCachedDeal(ctx context.Context, dealID primitive.ObjectID) (*models.Deal, bool)
	InvalidateDeal(ctx context.Context, dealID, businessID primitive.ObjectID)
}

type cacheService struct {
	store  CacheStore
	logger *logger.Logger
}

func NewCacheService(store CacheStore, log *logger.Logger) CacheService {
	return &cacheService{
		store:  store,
		logger: log,
	}
}

// Cache key builders. Feed keys are tracked in per-feed namespaces so deal
// writes can invalidate exactly the affected pages.
func DealCacheKey(dealID primitive.ObjectID) string {
	return fmt.Sprintf("deal:%s", dealID.Hex())
}

func BusinessCacheKey(businessID primitive.ObjectID) string {
	return fmt.Sprintf("business:%s", businessID.Hex())
}

func FollowingFeedKey(userID primitive.ObjectID, page, limit int) string {
	return fmt.Sprintf("feed:following:%s:%d:%d", userID.Hex(), page, limit)
}

func NearbyFeedKey(userID primitive.ObjectID, lat, lng, radius float64, page, limit int) string {
	return fmt.Sprintf("feed:nearby:%s:%.4f:%.4f:%.1f:%d:%d", userID.Hex(), lat, lng, radius, page, limit)
}

func FeedNamespace(kind string) string {
	return fmt.Sprintf("ns:feed:%s", kind)
}

func BusinessNamespace(businessID primitive.ObjectID) string {
	return fmt.Sprintf("ns:business:%s", businessID.Hex())
}

func namespaceIndexKey(namespace string) string {
	return namespace + ":keys"
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	err := s.store.Get(ctx, key, dest)
	if err != nil {
		if err != cache.ErrCacheMiss {
			s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		}
		return false
	}
	return true
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if err := s.store.Set(ctx, key, value, expiration); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) {
	if err := s.store.Delete(ctx, keys...); err != nil {
		s.logger.WithError(err).Warn("Cache delete failed")
	}
}

func (s *cacheService) Remember(ctx context.Context, key string, expiration time.Duration, dest interface{}, namespaces []string, compute func(context.Context) (interface{}, error)) error {
	if s.Get(ctx, key, dest) {
		return nil
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}

	s.Set(ctx, key, value, expiration)

	for _, namespace := range namespaces {
		if err := s.store.SAdd(ctx, namespaceIndexKey(namespace), key); err != nil {
			s.logger.WithError(err).WithField("namespace", namespace).Warn("Cache namespace tracking failed")
		}
	}

	// Copy the computed value into dest so hit and miss paths agree.
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cached value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return nil
}

func (s *cacheService) InvalidateNamespace(ctx context.Context, namespace string) {
	indexKey := namespaceIndexKey(namespace)

	keys, err := s.store.SMembers(ctx, indexKey)
	if err != nil {
		s.logger.WithError(err).WithField("namespace", namespace).Warn("Cache namespace lookup failed")
		return
	}

	if len(keys) > 0 {
		s.Delete(ctx, keys...)
	}
	s.Delete(ctx, indexKey)
}

func (s *cacheService) CacheDeal(ctx context.Context, deal *models.Deal) {
	s.Set(ctx, DealCacheKey(deal.ID), deal, utils.DealCacheTTL)
}

func (s *cacheService) GetCachedDeal(ctx context.Context, dealID primitive.ObjectID) (*models.Deal, bool) {
	var deal models.Deal
	if s.Get(ctx, DealCacheKey(dealID), &deal) {
		return &deal, true
	}
	return nil, false
}

// InvalidateDeal drops the deal's own entry, its business entry, the
// business namespace and both feed namespaces. Redemption correctness never
// depends on the cache; this just narrows the stale-read window.
func (s *cacheService) InvalidateDeal(ctx context.Context, dealID, businessID primitive.ObjectID) {
	s.Delete(ctx, DealCacheKey(dealID), BusinessCacheKey(businessID))
	s.InvalidateNamespace(ctx, BusinessNamespace(businessID))
	s.InvalidateNamespace(ctx, FeedNamespace("following"))
	s.InvalidateNamespace(ctx, FeedNamespace("nearby"))
}
