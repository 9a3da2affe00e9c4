// Package memory provides in-process stores for local development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"silo-planner/application/ports"
	"silo-planner/domain/core/entities"
	"silo-planner/domain/core/valueobjects"
)

type thread struct {
	number int
	key    string
	bodies []storedBody
}

type storedBody struct {
	id        int64
	body      string
	createdAt time.Time
}

// CommentStore keeps threads in memory and mirrors the GitHub layout:
// one thread per key, first body is the opening comment, the rest are replies.
type CommentStore struct {
	mu      sync.RWMutex
	threads []*thread
	nextNum int
	nextID  int64
	now     func() time.Time
}

// NewCommentStore creates an empty store
func NewCommentStore() *CommentStore {
	return &CommentStore{nextNum: 1, nextID: 1, now: time.Now}
}

// FetchAll returns every thread keyed by title
func (s *CommentStore) FetchAll(ctx context.Context) (map[string][]entities.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[string][]entities.Comment)
	for _, t := range s.threads {
		if _, ok := index[t.key]; !ok {
			index[t.key] = []entities.Comment{}
		}
		for i, b := range t.bodies {
			body, ok := valueobjects.DecodeBody(b.body)
			if !ok {
				continue
			}
			index[t.key] = append(index[t.key], entities.Comment{
				Author:    body.Author,
				Text:      body.Text,
				Timestamp: b.createdAt.UnixMilli(),
				ThreadID:  t.number,
				IsReply:   i > 0,
			})
		}
	}
	return index, nil
}

// Submit appends to the given thread, the thread titled with the key, or a new thread
func (s *CommentStore) Submit(ctx context.Context, req ports.SubmitRequest) (ports.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.findLocked(req)
	body := storedBody{id: s.nextID, body: valueobjects.EncodeBody(req.Author, req.Text), createdAt: s.now()}
	s.nextID++

	if target != nil {
		target.bodies = append(target.bodies, body)
		return ports.SubmitResult{ThreadID: target.number, CommentID: body.id}, nil
	}

	t := &thread{number: s.nextNum, key: req.Key, bodies: []storedBody{body}}
	s.nextNum++
	s.threads = append(s.threads, t)
	return ports.SubmitResult{ThreadID: t.number, CommentID: body.id, Created: true}, nil
}

func (s *CommentStore) findLocked(req ports.SubmitRequest) *thread {
	for _, t := range s.threads {
		if req.ThreadID != 0 && t.number == req.ThreadID {
			return t
		}
	}
	if req.ThreadID != 0 {
		return nil
	}
	for _, t := range s.threads {
		if t.key == req.Key {
			return t
		}
	}
	return nil
}
