package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/padraicbc/racelog/models"
)

// UserCache memoizes user lookups made on every authenticated request.
type UserCache struct {
	next  UserLookup
	users *cache.Cache
}

// NewUserCache caches next for ttl. A non-positive ttl disables caching.
func NewUserCache(next UserLookup, ttl time.Duration) *UserCache {
	uc := &UserCache{next: next}
	if ttl > 0 {
		uc.users = cache.New(ttl, 2*ttl)
	}
	return uc
}

// GetByID returns the cached user or loads it. Misses are not cached.
func (uc *UserCache) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if uc.users != nil {
		if v, ok := uc.users.Get(id.String()); ok {
			u := v.(models.User)
			return &u, nil
		}
	}

	user, err := uc.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if uc.users != nil {
		uc.users.SetDefault(id.String(), *user)
	}
	return user, nil
}

// Forget drops id so the next request reloads it.
func (uc *UserCache) Forget(id uuid.UUID) {
	if uc.users != nil {
		uc.users.Delete(id.String())
	}
}
