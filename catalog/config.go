package catalog

import (
	"errors"
	"io/fs"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/thrasher-corp/gocryptotrader-core/breaker"
)

// CoreConfig is the process-scope option set from spec.md §6's table,
// loaded the way the teacher's own config.Config is loaded — through
// github.com/spf13/viper, so callers may overlay environment variables, a
// flag set, or a config file without this package caring which.
type CoreConfig struct {
	RecvWindowMS               int64
	RequestTimeoutMS           int64
	RateLimitCleanupIntervalMS int64
	RateLimitMaxAgeMS          int64
	BrokerID                   string
	CircuitBreaker             breaker.Config
}

// RequestTimeout returns the configured per-call deadline as a
// time.Duration.
func (c CoreConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// RateLimitCleanupInterval returns the configured eviction-maintenance
// period as a time.Duration.
func (c CoreConfig) RateLimitCleanupInterval() time.Duration {
	return time.Duration(c.RateLimitCleanupIntervalMS) * time.Millisecond
}

// RateLimitMaxAge returns the configured eviction horizon as a
// time.Duration.
func (c CoreConfig) RateLimitMaxAge() time.Duration {
	return time.Duration(c.RateLimitMaxAgeMS) * time.Millisecond
}

// DefaultCoreConfig returns the option table's defaults verbatim from
// spec.md §6.
func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		RecvWindowMS:               5000,
		RequestTimeoutMS:           30_000,
		RateLimitCleanupIntervalMS: 60_000,
		RateLimitMaxAgeMS:          60_000,
		CircuitBreaker:             DefaultBreakerConfig(),
	}
}

// LoadCoreConfig builds a viper instance seeded with DefaultCoreConfig's
// values, overlays an optional config file at path (if non-empty) and
// environment variables prefixed GCT_CORE_, and decodes the result. A
// missing optional file is not an error; a malformed one is.
//
// CoreConfig carries no requests-per-period value; ParseRequestsPerPeriod
// is the decimal-based parser for those.
func LoadCoreConfig(path string) (CoreConfig, error) {
	v := viper.New()
	def := DefaultCoreConfig()
	v.SetDefault("recv_window_ms", def.RecvWindowMS)
	v.SetDefault("request_timeout_ms", def.RequestTimeoutMS)
	v.SetDefault("rate_limit_cleanup_interval_ms", def.RateLimitCleanupIntervalMS)
	v.SetDefault("rate_limit_max_age_ms", def.RateLimitMaxAgeMS)
	v.SetDefault("broker_id", def.BrokerID)
	v.SetDefault("circuit_breaker.enabled", def.CircuitBreaker.Enabled)
	v.SetDefault("circuit_breaker.max_failures", def.CircuitBreaker.MaxFailures)
	v.SetDefault("circuit_breaker.window_ms", def.CircuitBreaker.WindowMS)
	v.SetDefault("circuit_breaker.reset_ms", def.CircuitBreaker.ResetMS)

	v.SetEnvPrefix("GCT_CORE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return CoreConfig{}, err
			}
		}
	}

	return CoreConfig{
		RecvWindowMS:               v.GetInt64("recv_window_ms"),
		RequestTimeoutMS:           v.GetInt64("request_timeout_ms"),
		RateLimitCleanupIntervalMS: v.GetInt64("rate_limit_cleanup_interval_ms"),
		RateLimitMaxAgeMS:          v.GetInt64("rate_limit_max_age_ms"),
		BrokerID:                   v.GetString("broker_id"),
		CircuitBreaker: breaker.Config{
			Enabled:     v.GetBool("circuit_breaker.enabled"),
			MaxFailures: v.GetInt("circuit_breaker.max_failures"),
			WindowMS:    v.GetInt64("circuit_breaker.window_ms"),
			ResetMS:     v.GetInt64("circuit_breaker.reset_ms"),
		},
	}, nil
}

// ParseRequestsPerPeriod decimal-parses a requests-per-period string from a
// config overlay (e.g. catalog override files expressing a custom policy)
// into the float64 ratelimit.Policy.Requests expects, rejecting malformed
// input the way a naive ParseFloat would silently round instead of reject
// on some locales' thousands separators.
func ParseRequestsPerPeriod(raw string) (float64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}
