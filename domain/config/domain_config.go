package config

import "time"

// DomainConfig holds the business rules shared by the feedback and planning flows
type DomainConfig struct {
	// Feedback
	CommentLabel     string
	ThreadPageSize   int
	ReconcileDelay   time.Duration
	MaxCommentLength int
	MaxAuthorLength  int

	// Planning
	SaveDebounce      time.Duration
	DefaultPathName   string
	RoadmapDocumentID string

	// Local key-value cache
	RoadmapCacheKey   string
	CommenterCacheKey string
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		CommentLabel:     "comment",
		ThreadPageSize:   100,
		ReconcileDelay:   1500 * time.Millisecond,
		MaxCommentLength: 65536,
		MaxAuthorLength:  100,

		SaveDebounce:      time.Second,
		DefaultPathName:   "New Path",
		RoadmapDocumentID: "silo-roadmap",

		RoadmapCacheKey:   "silo-roadmap-paths-v3",
		CommenterCacheKey: "silo-commenter-name",
	}
}

// Validate checks that durations and sizes are usable
func (c *DomainConfig) Validate() error {
	if c.ReconcileDelay < 0 || c.SaveDebounce < 0 {
		return ErrNegativeDuration
	}
	if c.ThreadPageSize <= 0 || c.ThreadPageSize > 100 {
		return ErrInvalidPageSize
	}
	if c.RoadmapCacheKey == "" || c.CommenterCacheKey == "" {
		return ErrMissingCacheKey
	}
	return nil
}
