package utils

import "time"

// Application Constants
const (
	AppName    = "DealSpot"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Geo
	EarthRadiusKM        = 6371.0
	DefaultNearbyRadius  = 10.0 // kilometers
	MaxNearbyRadius      = 50.0 // kilometers
	DefaultDealRadius    = 5.0  // kilometers, deal visibility fallback
	MaxDealRadius        = 100.0

	// Deal Constants
	MinDealDuration   = 15 * time.Minute
	MaxDealDuration   = 90 * 24 * time.Hour
	MaxDealTags       = 10
	RedemptionCodeLen = 8

	// Cache TTLs
	DealCacheTTL     = 5 * time.Minute
	BusinessCacheTTL = 10 * time.Minute
	FeedCacheTTL     = 1 * time.Minute
	UserCacheTTL     = 15 * time.Minute

	// Broadcast Constants
	MaxBroadcastLength = 1000
	NewUserWindow      = 7 * 24 * time.Hour
	ActiveUserWindow   = 30 * 24 * time.Hour

	// Push
	PushDispatchTimeout = 30 * time.Second
	MaxMulticastTokens  = 500
)

// Response Status
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInternalServer   = "Internal server error"
	ErrValidationFailed = "Validation failed"
	ErrUnauthorized     = "Unauthorized access"
	ErrForbiddenAccess  = "Forbidden"
	ErrResourceNotFound = "Resource not found"
)
