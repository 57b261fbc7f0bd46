package repository

import (
	"context"

	"github.com/FrankKleiton/vote-app/cache"
	"github.com/FrankKleiton/vote-app/models"
)

// CachedStore serves user lookups and fully loaded poll lookups from a
// read-through cache. Everything else goes straight to the wrapped store.
type CachedStore struct {
	Store
	cache *cache.RecordCache
}

// NewCachedStore wraps store with c.
func NewCachedStore(store Store, c *cache.RecordCache) *CachedStore {
	return &CachedStore{Store: store, cache: c}
}

// FindUser users are immutable and carry no relations, so entries never go stale.
func (s *CachedStore) FindUser(ctx context.Context, id uint) (*models.User, error) {
	return cache.Fetch(ctx, s.cache, cache.UserKey(id), func(ctx context.Context) (*models.User, error) {
		return s.Store.FindUser(ctx, id)
	})
}

// FindPoll only FullPoll lookups are cached; they are invalidated by CreateVote.
func (s *CachedStore) FindPoll(ctx context.Context, id uint, rel PollRelations) (*models.Poll, error) {
	if !rel.isFull() {
		return s.Store.FindPoll(ctx, id, rel)
	}
	return cache.Fetch(ctx, s.cache, cache.PollKey(id), func(ctx context.Context) (*models.Poll, error) {
		return s.Store.FindPoll(ctx, id, rel)
	})
}

// CreateVote inserts the vote and drops the cached poll it changes.
func (s *CachedStore) CreateVote(ctx context.Context, userID, pollID, optionID uint) (*models.Vote, error) {
	vote, err := s.Store.CreateVote(ctx, userID, pollID, optionID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.PollKey(pollID))
	return vote, nil
}

func (r PollRelations) isFull() bool {
	return r == FullPoll()
}
