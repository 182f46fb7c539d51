package validators

import "time"

type DealCreateRequest struct {
	Title              string    `json:"title" validate:"required,min=3,max=120"`
	Description        string    `json:"description" validate:"omitempty,max=2000"`
	OriginalPrice      float64   `json:"original_price" validate:"required,gt=0"`
	DiscountedPrice    float64   `json:"discounted_price" validate:"required,gt=0"`
	Category           string    `json:"category" validate:"omitempty,max=60"`
	Tags               []string  `json:"tags" validate:"omitempty,max=10,dive,max=30"`
	ImageURL           string    `json:"image_url" validate:"omitempty,url"`
	StartsAt           time.Time `json:"starts_at" validate:"required"`
	ExpiresAt          time.Time `json:"expires_at" validate:"required"`
	IsFlashDeal        bool      `json:"is_flash_deal"`
	VisibilityRadiusKm float64   `json:"visibility_radius_km" validate:"omitempty,gt=0,max=100"`
	QuantityAvailable  *int      `json:"quantity_available" validate:"omitempty,min=1"`
	MaxPerUser         int       `json:"max_per_user" validate:"omitempty,min=1"`
}

type DealUpdateRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=3,max=120"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	OriginalPrice   *float64   `json:"original_price" validate:"omitempty,gt=0"`
	DiscountedPrice *float64   `json:"discounted_price" validate:"omitempty,gt=0"`
	Category        *string    `json:"category" validate:"omitempty,max=60"`
	Tags            []string   `json:"tags" validate:"omitempty,max=10,dive,max=30"`
	ImageURL        *string    `json:"image_url" validate:"omitempty,url"`
	ExpiresAt       *time.Time `json:"expires_at" validate:"omitempty"`
}

type FollowUpdateRequest struct {
	NotifyNewDeals   bool `json:"notify_new_deals"`
	NotifyFlashDeals bool `json:"notify_flash_deals"`
}
