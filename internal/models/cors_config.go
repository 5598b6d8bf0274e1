package models

import "time"

// CorsConfig holds CORS settings served to the hot-reloading middleware.
// AllowedOrigins is comma-separated.
type CorsConfig struct {
	ConfigKey        string    `json:"configKey"`
	AllowedOrigins   string    `json:"allowedOrigins"`
	AllowCredentials bool      `json:"allowCredentials"`
	MaxAge           int       `json:"maxAge"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
