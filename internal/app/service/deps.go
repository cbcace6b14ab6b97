package service

import (
	"context"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
)

// Cache is the JSON cache the services read through. A nil Cache disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ActivityPublisher fans committed admin activity out to live subscribers.
type ActivityPublisher interface {
	Publish(activity model.AdminActivity)
}

type noopPublisher struct{}

func (noopPublisher) Publish(model.AdminActivity) {}

func publisherOrNoop(p ActivityPublisher) ActivityPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
