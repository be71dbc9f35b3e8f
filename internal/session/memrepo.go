package session

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/Cheese-Checkers-bot/internal/domain"
)

// MemoryRepository is the result store used when no database is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.CheckersResult
	byUser map[string][]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*domain.CheckersResult),
		byUser: make(map[string][]string),
	}
}

// SaveResult stores or replaces the result of g.
func (r *MemoryRepository) SaveResult(_ context.Context, g *Game, method string) error {
	if g == nil {
		return nil
	}
	res := resultFromGame(g, method)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[res.GameID]; !exists {
		for _, uid := range []string{res.WhiteID, res.BlackID} {
			if uid != "" {
				r.byUser[uid] = append(r.byUser[uid], res.GameID)
			}
		}
	}
	r.byID[res.GameID] = res
	return nil
}

func (r *MemoryRepository) RecentResults(_ context.Context, userID string, limit int) ([]*domain.CheckersResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	out := make([]*domain.CheckersResult, 0, len(ids))
	for _, id := range ids {
		cp := *r.byID[id]
		cp.Moves = append([]string(nil), cp.Moves...)
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) Close() error { return nil }
