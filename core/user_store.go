package core

import (
	"context"
	"errors"
	"log"
)

// UserStore composes the durable repository with the cache-aside mirror.
// Reads check the by-email slot first and repopulate it from the store on
// miss; creates write through to the by-id slot only, so a freshly
// registered user's first login always takes the store path. The two
// backing stores are never updated atomically: a failed cache write after a
// committed insert is logged and self-heals on the next read miss.
type UserStore struct {
	users UserRepository
	cache *UserCache
}

func NewUserStore(users UserRepository, cache *UserCache) *UserStore {
	return &UserStore{users: users, cache: cache}
}

// CreateUser inserts the user durably, then mirrors it into the by-id cache
// slot without expiry. A uniqueness violation surfaces as ErrAlreadyExists;
// a cache-write failure is not fatal since the row already committed.
func (s *UserStore) CreateUser(ctx context.Context, nu NewUser) (User, error) {
	u, err := s.users.Create(ctx, nu)
	if err != nil {
		return User{}, err
	}

	if err := s.cache.SetByID(ctx, u); err != nil {
		log.Printf("cache write after user create failed (id=%d): %v", u.ID, err)
	}
	return u, nil
}

// GetUserByEmail serves the by-email cache slot when possible and falls back
// to the durable store otherwise, repopulating the slot with the configured
// TTL. A corrupt cached payload is treated as a miss, not an error; the
// repopulation overwrites it. Not-found results are never cached.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	cached, err := s.cache.GetByEmail(ctx, email)
	switch {
	case err == nil && cached != nil:
		return *cached, nil
	case errors.Is(err, ErrDeserialization):
		log.Printf("corrupt cache entry for user_email:%s, falling back to store: %v", email, err)
	case err != nil:
		// The cache being down must not take reads down; the store path
		// still answers.
		log.Printf("cache read for user_email:%s failed, falling back to store: %v", email, err)
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}

	if err := s.cache.SetByEmail(ctx, u); err != nil {
		log.Printf("cache repopulation for user_email:%s failed: %v", email, err)
	}
	return u, nil
}
