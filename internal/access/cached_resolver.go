package access

import (
	"context"
	"sync"
	"time"
)

// CachedResolver keeps resolved profiles per user id for a fixed TTL. Users
// without a profile are cached too, so anonymous-looking sessions do not hit
// the database on every request.
type CachedResolver struct {
	inner ProfileResolver
	ttl   time.Duration
	now   func() time.Time

	mu     sync.RWMutex
	byUser map[uint]cachedProfile
}

type cachedProfile struct {
	profile   Profile
	expiresAt time.Time
}

func NewCachedResolver(inner ProfileResolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		inner:  inner,
		ttl:    ttl,
		now:    time.Now,
		byUser: make(map[uint]cachedProfile),
	}
}

// Resolve serves userID from the cache while the entry is fresh. Errors are
// not cached.
func (r *CachedResolver) Resolve(ctx context.Context, userID uint) (Profile, error) {
	r.mu.RLock()
	entry, ok := r.byUser[userID]
	r.mu.RUnlock()
	if ok && r.now().Before(entry.expiresAt) {
		return entry.profile, nil
	}

	profile, err := r.inner.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.byUser[userID] = cachedProfile{profile: profile, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return profile, nil
}

// Invalidate drops one user, after their profile assignment changed.
func (r *CachedResolver) Invalidate(userID uint) {
	r.mu.Lock()
	delete(r.byUser, userID)
	r.mu.Unlock()
}

// InvalidateProfile drops every user cached under profileID, after its
// permissions were edited or the profile was deleted.
func (r *CachedResolver) InvalidateProfile(profileID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uid, entry := range r.byUser {
		if entry.profile != nil && entry.profile.ID() == profileID {
			delete(r.byUser, uid)
		}
	}
}

// InvalidateAll empties the cache.
func (r *CachedResolver) InvalidateAll() {
	r.mu.Lock()
	r.byUser = make(map[uint]cachedProfile)
	r.mu.Unlock()
}
