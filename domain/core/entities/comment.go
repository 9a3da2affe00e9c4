package entities

import (
	"encoding/json"
	"sort"
)

// Comment is one piece of feedback attached to an annotation key.
// Field names on the wire match the comments endpoint.
type Comment struct {
	Author    string `json:"name"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	ThreadID  int    `json:"issueNumber,omitempty"`
	IsReply   bool   `json:"isReply,omitempty"`

	// TempID marks an optimistic entry that has not been reconciled yet
	TempID string `json:"-"`
}

// IsOptimistic reports whether the comment was created locally and not yet reconciled
func (c Comment) IsOptimistic() bool {
	return c.TempID != ""
}

// CommentIndex maps annotation keys to their ordered comments.
// It is not safe for concurrent use; owners serialize access.
type CommentIndex struct {
	threads map[string][]Comment
}

// NewCommentIndex creates an empty index
func NewCommentIndex() *CommentIndex {
	return &CommentIndex{threads: make(map[string][]Comment)}
}

// NewCommentIndexFrom builds an index from an existing mapping, copying every list
func NewCommentIndexFrom(threads map[string][]Comment) *CommentIndex {
	idx := NewCommentIndex()
	for key, comments := range threads {
		idx.threads[key] = append([]Comment(nil), comments...)
	}
	return idx
}

// Append adds a comment after every existing entry for the key.
// IsReply is derived from the position.
func (idx *CommentIndex) Append(key string, c Comment) Comment {
	existing := idx.threads[key]
	c.IsReply = len(existing) > 0
	idx.threads[key] = append(existing, c)
	return c
}

// RemoveTemp deletes the single entry carrying tempID under key.
// Returns false when nothing matched.
func (idx *CommentIndex) RemoveTemp(key, tempID string) bool {
	if tempID == "" {
		return false
	}
	comments, ok := idx.threads[key]
	if !ok {
		return false
	}
	for i, c := range comments {
		if c.TempID != tempID {
			continue
		}
		remaining := make([]Comment, 0, len(comments)-1)
		remaining = append(remaining, comments[:i]...)
		remaining = append(remaining, comments[i+1:]...)
		if len(remaining) == 0 {
			delete(idx.threads, key)
		} else {
			idx.threads[key] = remaining
		}
		return true
	}
	return false
}

// AssignThread records the remote thread id on the optimistic entry carrying tempID
func (idx *CommentIndex) AssignThread(key, tempID string, threadID int) bool {
	comments := idx.threads[key]
	for i := range comments {
		if comments[i].TempID == tempID {
			comments[i].ThreadID = threadID
			return true
		}
	}
	return false
}

// ThreadID returns the thread id of the first comment under key, if it has one
func (idx *CommentIndex) ThreadID(key string) (int, bool) {
	comments := idx.threads[key]
	if len(comments) == 0 || comments[0].ThreadID == 0 {
		return 0, false
	}
	return comments[0].ThreadID, true
}

// Get returns a copy of the comments under key
func (idx *CommentIndex) Get(key string) []Comment {
	return append([]Comment(nil), idx.threads[key]...)
}

// Count returns how many comments are stored under key
func (idx *CommentIndex) Count(key string) int {
	return len(idx.threads[key])
}

// Keys returns every key in sorted order
func (idx *CommentIndex) Keys() []string {
	keys := make([]string, 0, len(idx.threads))
	for key := range idx.threads {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys with at least one comment
func (idx *CommentIndex) Len() int {
	return len(idx.threads)
}

// Snapshot returns a deep copy of the mapping
func (idx *CommentIndex) Snapshot() map[string][]Comment {
	out := make(map[string][]Comment, len(idx.threads))
	for key, comments := range idx.threads {
		out[key] = append([]Comment(nil), comments...)
	}
	return out
}

// Clone returns an independent copy of the index
func (idx *CommentIndex) Clone() *CommentIndex {
	return NewCommentIndexFrom(idx.threads)
}

// MarshalJSON renders the index as a plain key to comments object
func (idx *CommentIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(idx.threads)
}

// UnmarshalJSON implements json.Unmarshaler
func (idx *CommentIndex) UnmarshalJSON(data []byte) error {
	threads := make(map[string][]Comment)
	if err := json.Unmarshal(data, &threads); err != nil {
		return err
	}
	idx.threads = threads
	return nil
}
