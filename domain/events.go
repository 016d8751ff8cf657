package domain

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Event types published after a mutation is stored.
const (
	UserCreated    = "user-created"
	ProjectCreated = "project-created"
	ProjectUpdated = "project-updated"
	ProjectDeleted = "project-deleted"
	TaskCreated    = "task-created"
	TaskUpdated    = "task-updated"
	TaskDeleted    = "task-deleted"
)

// Event describes a committed change to a user, project or task.
type Event struct {
	ID         string                 `json:"id"`
	EntityID   string                 `json:"entityId"`
	EntityType string                 `json:"entityType"`
	Type       string                 `json:"type"`
	Data       sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
	UserID     string                 `json:"userId"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type userEventData struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type projectEventData struct {
	Name string `json:"name,omitempty"`
}

type taskEventData struct {
	Name      string `json:"name,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
	State     bool   `json:"state"`
}

var lastTimestamp int64

// nextTimestamp returns a strictly increasing unix-nano timestamp.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

// publish sends the event if a publisher is configured. The change it
// describes is already stored, so failures are only logged.
func publish(ctx context.Context, p Publisher, userID UserID, entityType, typ, entityID string, data any) {
	if p == nil {
		return
	}
	fields := log.Fields{"event": typ, "entity": entityID, "user": userID.String()}
	payload, err := sonic.Marshal(data)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("failed to encode domain event")
		return
	}
	ev := Event{
		ID:         uuid.NewString(),
		EntityID:   entityID,
		EntityType: entityType,
		Type:       typ,
		Data:       payload,
		Timestamp:  nextTimestamp(),
		UserID:     userID.String(),
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.WithError(err).WithFields(fields).Warn("failed to publish domain event")
	}
}
