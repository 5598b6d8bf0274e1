package models

import "time"

// RatelimitConfig holds the request rate limit in ulule/limiter formatted
// notation, e.g. "5-S" or "100-M".
type RatelimitConfig struct {
	ConfigKey string    `json:"configKey"`
	Rate      string    `json:"rate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
