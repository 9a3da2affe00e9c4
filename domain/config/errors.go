package config

import "errors"

var (
	ErrNegativeDuration = errors.New("durations must not be negative")
	ErrInvalidPageSize  = errors.New("thread page size must be between 1 and 100")
	ErrMissingCacheKey  = errors.New("cache keys must not be empty")
)
