package queries

import "strings"

// ListCommentsQuery fetches every comment thread, optionally for one key
type ListCommentsQuery struct {
	Key string
}

// Validate validates the query
func (q ListCommentsQuery) Validate() error {
	return nil
}

// HasKey reports whether the query is narrowed to a single key
func (q ListCommentsQuery) HasKey() bool {
	return strings.TrimSpace(q.Key) != ""
}
