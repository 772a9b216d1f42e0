package models

import (
	"sync"
	"time"
)

type cachedUser struct {
	user      User
	expiresAt time.Time
}

// UserCache keeps resolved users for a limited time so repeated
// argument lookups do not hit the platform API every time
type UserCache struct {
	users      map[string]cachedUser
	expireMins int
	mu         sync.RWMutex
}

// NewUserCache creates a cache whose entries live for expireMins minutes
func NewUserCache(expireMins int) *UserCache {
	return &UserCache{
		users:      make(map[string]cachedUser),
		expireMins: expireMins,
	}
}

// Add stores a user with a fresh expiration
func (c *UserCache) Add(user User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.users[user.ID] = cachedUser{
		user:      user,
		expiresAt: time.Now().Add(time.Duration(c.expireMins) * time.Minute),
	}
}

// Remove drops a user from the cache
func (c *UserCache) Remove(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.users, userID)
}

// Get returns the cached user if present and not expired
func (c *UserCache) Get(userID string) (User, bool) {
	c.mu.RLock()
	entry, exists := c.users[userID]
	c.mu.RUnlock()
	if !exists {
		return User{}, false
	}

	if time.Now().After(entry.expiresAt) {
		c.Remove(userID)
		return User{}, false
	}

	return entry.user, true
}

// Purge removes every expired entry
func (c *UserCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for userID, entry := range c.users {
		if now.After(entry.expiresAt) {
			delete(c.users, userID)
		}
	}
}
