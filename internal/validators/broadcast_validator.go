package validators

import "time"

type BroadcastRequest struct {
	Message     string     `json:"message" validate:"required,min=1,max=1000"`
	TargetGroup string     `json:"target_group" validate:"required,oneof=all new_users active_users business_owners consumers"`
	ScheduledAt *time.Time `json:"scheduled_at" validate:"omitempty,future_date"`
}

type TrackClickRequest struct {
	UserID  string `json:"user_id" validate:"required,object_id"`
	LinkURL string `json:"link_url" validate:"required,max=2000"`
}

type DeviceRegisterRequest struct {
	Token    string `json:"token" validate:"required,max=4096"`
	Platform string `json:"platform" validate:"required,oneof=android ios web"`
}
