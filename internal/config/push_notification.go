package config

import (
	"time"
)

type PushConfig struct {
	Provider        string        `yaml:"provider"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
	FCM             *FCMConfig    `yaml:"fcm"`
	APNS            *APNSConfig   `yaml:"apns"`
}

type FCMConfig struct {
	ProjectID   string `yaml:"project_id"`
	Credentials string `yaml:"credentials_file"`
}

type APNSConfig struct {
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	BundleID   string `yaml:"bundle_id"`
	KeyFile    string `yaml:"key_file"`
	Production bool   `yaml:"production"`
}

// Enabled reports whether a push gateway is configured at all. Dispatch is
// skipped entirely (durable notifications only) when it is not.
func (p *PushConfig) Enabled() bool {
	switch p.Provider {
	case "fcm":
		return p.FCM != nil && p.FCM.Credentials != ""
	case "apns":
		return p.APNS != nil && p.APNS.KeyFile != ""
	default:
		return false
	}
}

func loadPushConfig() *PushConfig {
	return &PushConfig{
		Provider:        getEnv("PUSH_PROVIDER", "fcm"),
		DispatchTimeout: getEnvAsDuration("PUSH_DISPATCH_TIMEOUT", 30*time.Second),
		FCM: &FCMConfig{
			ProjectID:   getEnv("FCM_PROJECT_ID", ""),
			Credentials: getEnv("FCM_CREDENTIALS_FILE", ""),
		},
		APNS: &APNSConfig{
			KeyID:      getEnv("APNS_KEY_ID", ""),
			TeamID:     getEnv("APNS_TEAM_ID", ""),
			BundleID:   getEnv("APNS_BUNDLE_ID", ""),
			KeyFile:    getEnv("APNS_KEY_FILE", ""),
			Production: getEnvAsBool("APNS_PRODUCTION", false),
		},
	}
}
