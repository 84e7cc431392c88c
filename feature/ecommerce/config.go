package ecommerce

import "time"

// Config holds the reconciliation rules for staged orders.
type Config struct {
	// RequireActiveList skips records whose contact is not subscribed to any list.
	RequireActiveList bool `mapstructure:"require_active_list" default:"false"`
	// ContactCacheTTL caches list eligibility per email (0 disables caching).
	ContactCacheTTL time.Duration `mapstructure:"contact_cache_ttl" default:"5m"`
	// Gate promotes new records before each pass based on destination activity.
	Gate bool `mapstructure:"gate" default:"true"`
	// RetentionDays purges terminal records older than this many days (0 disables).
	RetentionDays int `mapstructure:"retention_days" default:"90"`
	// Currency is used when a staged record carries none.
	Currency string `mapstructure:"currency" default:"USD"`
	// OrderSource is sent as the order source on create.
	OrderSource string `mapstructure:"order_source" default:"1"`
	// Interval is the cadence of passes in watch mode.
	Interval time.Duration `mapstructure:"interval" default:"15m"`
	// AutoMigrate creates the staging tables on startup (local runs only).
	AutoMigrate bool `mapstructure:"auto_migrate" default:"false"`
}

// RetentionCutoff returns the staging time before which terminal records are
// purged, and false when retention is disabled.
func (c Config) RetentionCutoff(now time.Time) (time.Time, bool) {
	if c.RetentionDays <= 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -c.RetentionDays), true
}
