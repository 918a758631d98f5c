package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sql-research-assistant/internal/models"
	"sql-research-assistant/pkg/redis"

	"go.uber.org/zap"
)

// MemoryRepository keeps the most recent exchanges of each session, oldest first.
type MemoryRepository interface {
	Recent(ctx context.Context, sessionID string) ([]models.Exchange, error)
	Append(ctx context.Context, sessionID string, exchange models.Exchange) error
	Clear(ctx context.Context, sessionID string) error
}

func memoryKey(sessionID string) string {
	return fmt.Sprintf("memory:%s", sessionID)
}

type redisMemoryRepository struct {
	lists    redis.ListRepository
	maxTurns int
	ttl      time.Duration
	logger   *zap.Logger
}

func NewRedisMemoryRepository(lists redis.ListRepository, maxTurns int, ttl time.Duration, logger *zap.Logger) MemoryRepository {
	return &redisMemoryRepository{
		lists:    lists,
		maxTurns: maxTurns,
		ttl:      ttl,
		logger:   logger.Named("memory"),
	}
}

func (r *redisMemoryRepository) Recent(ctx context.Context, sessionID string) ([]models.Exchange, error) {
	values, err := r.lists.Range(ctx, memoryKey(sessionID))
	if err != nil {
		return nil, err
	}

	exchanges := make([]models.Exchange, 0, len(values))
	for _, value := range values {
		var exchange models.Exchange
		if err := json.Unmarshal([]byte(value), &exchange); err != nil {
			r.logger.Warn("skipping malformed exchange", zap.String("session_id", sessionID), zap.Error(err))
			continue
		}
		exchanges = append(exchanges, exchange)
	}
	return exchanges, nil
}

func (r *redisMemoryRepository) Append(ctx context.Context, sessionID string, exchange models.Exchange) error {
	data, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}
	return r.lists.PushCapped(ctx, memoryKey(sessionID), int64(r.maxTurns), r.ttl, string(data))
}

func (r *redisMemoryRepository) Clear(ctx context.Context, sessionID string) error {
	return r.lists.Del(ctx, memoryKey(sessionID))
}

type sessionMemory struct {
	exchanges []models.Exchange
	expiresAt time.Time
}

type inMemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]*sessionMemory
	maxTurns int
	ttl      time.Duration
	now      func() time.Time

	nextSweep time.Time
}

// NewInMemoryRepository keeps history in process memory. Used when no Redis
// server is configured.
func NewInMemoryRepository(maxTurns int, ttl time.Duration) MemoryRepository {
	return &inMemoryRepository{
		sessions: make(map[string]*sessionMemory),
		maxTurns: maxTurns,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *inMemoryRepository) Recent(ctx context.Context, sessionID string) ([]models.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	memory := r.lookup(sessionID)
	if memory == nil {
		return nil, nil
	}
	out := make([]models.Exchange, len(memory.exchanges))
	copy(out, memory.exchanges)
	return out, nil
}

func (r *inMemoryRepository) Append(ctx context.Context, sessionID string, exchange models.Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()
	memory := r.lookup(sessionID)
	if memory == nil {
		memory = &sessionMemory{}
		r.sessions[sessionID] = memory
	}
	memory.exchanges = append(memory.exchanges, exchange)
	if overflow := len(memory.exchanges) - r.maxTurns; r.maxTurns > 0 && overflow > 0 {
		memory.exchanges = append([]models.Exchange(nil), memory.exchanges[overflow:]...)
	}
	if r.ttl > 0 {
		memory.expiresAt = r.now().Add(r.ttl)
	}
	return nil
}

func (r *inMemoryRepository) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

// lookup returns the live memory of a session, dropping it once expired.
// Callers hold r.mu.
func (r *inMemoryRepository) lookup(sessionID string) *sessionMemory {
	memory, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	if !memory.expiresAt.IsZero() && !r.now().Before(memory.expiresAt) {
		delete(r.sessions, sessionID)
		return nil
	}
	return memory
}

// sweep drops every expired session, at most once per ttl. Callers hold r.mu.
func (r *inMemoryRepository) sweep() {
	if r.ttl <= 0 {
		return
	}
	now := r.now()
	if now.Before(r.nextSweep) {
		return
	}
	for sessionID, memory := range r.sessions {
		if !now.Before(memory.expiresAt) {
			delete(r.sessions, sessionID)
		}
	}
	r.nextSweep = now.Add(r.ttl)
}
