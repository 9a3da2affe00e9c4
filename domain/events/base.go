package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeCommentPosted = "comment.posted"
	TypeThreadOpened  = "comment.thread_opened"
	TypeRoadmapSaved  = "roadmap.saved"
)

// Comment Events

// CommentPosted is raised after a comment is accepted by the remote store
type CommentPosted struct {
	BaseEvent
	Key       string `json:"key"`
	Author    string `json:"author"`
	ThreadID  int    `json:"thread_id"`
	CommentID int64  `json:"comment_id"`
	IsReply   bool   `json:"is_reply"`
}

// NewCommentPosted creates a CommentPosted event
func NewCommentPosted(key, author string, threadID int, commentID int64, isReply bool, timestamp time.Time) CommentPosted {
	return CommentPosted{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   TypeCommentPosted,
			Timestamp:   timestamp,
			Version:     1,
		},
		Key:       key,
		Author:    author,
		ThreadID:  threadID,
		CommentID: commentID,
		IsReply:   isReply,
	}
}

// ThreadOpened is raised when the first comment for a key creates a new thread
type ThreadOpened struct {
	BaseEvent
	Key      string `json:"key"`
	ThreadID int    `json:"thread_id"`
}

// NewThreadOpened creates a ThreadOpened event
func NewThreadOpened(key string, threadID int, timestamp time.Time) ThreadOpened {
	return ThreadOpened{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   TypeThreadOpened,
			Timestamp:   timestamp,
			Version:     1,
		},
		Key:      key,
		ThreadID: threadID,
	}
}

// Roadmap Events

// RoadmapSaved is raised after the full roadmap document is written remotely
type RoadmapSaved struct {
	BaseEvent
	Paths       int `json:"paths"`
	Initiatives int `json:"initiatives"`
	Modules     int `json:"modules"`
}

// NewRoadmapSaved creates a RoadmapSaved event
func NewRoadmapSaved(documentID string, paths, initiatives, modules int, timestamp time.Time) RoadmapSaved {
	return RoadmapSaved{
		BaseEvent: BaseEvent{
			AggregateID: documentID,
			EventType:   TypeRoadmapSaved,
			Timestamp:   timestamp,
			Version:     1,
		},
		Paths:       paths,
		Initiatives: initiatives,
		Modules:     modules,
	}
}
