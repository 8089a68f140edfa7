package memory

import (
	"sync"
	"time"

	"ai-qa-rag-be/pkg/llm"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultConversationTTL = 1 * time.Hour
	// maxStoredTurns caps a session; the selector applies its own history window on top.
	maxStoredTurns = 40
)

// ConversationRepository keeps recent turns per session in process memory.
type ConversationRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewConversationRepository(ttl time.Duration) *ConversationRepository {
	if ttl <= 0 {
		ttl = DefaultConversationTTL
	}
	return &ConversationRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

// Recent returns a copy of the stored turns, oldest first.
func (r *ConversationRepository) Recent(sessionId string) []llm.Message {
	if sessionId == "" {
		return nil
	}
	x, found := r.cache.Get(sessionId)
	if !found {
		return nil
	}
	turns := x.([]llm.Message)
	out := make([]llm.Message, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to the session and refreshes its expiry.
func (r *ConversationRepository) Append(sessionId string, turns ...llm.Message) {
	if sessionId == "" || len(turns) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored []llm.Message
	if x, found := r.cache.Get(sessionId); found {
		stored = x.([]llm.Message)
	}
	next := make([]llm.Message, 0, len(stored)+len(turns))
	next = append(next, stored...)
	next = append(next, turns...)
	if len(next) > maxStoredTurns {
		next = next[len(next)-maxStoredTurns:]
	}
	r.cache.Set(sessionId, next, cache.DefaultExpiration)
}

func (r *ConversationRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}
