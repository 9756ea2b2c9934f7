package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/Joeboy77/chat-app/internal/model"
)

// Registry tracks the Participant behind each open connection.
// It is the sole owner of presence state: created empty at process
// start, mutated only by join/disconnect, never persisted.
type Registry struct {
	mu           sync.RWMutex
	participants map[string]model.Participant
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{participants: make(map[string]model.Participant)}
}

// Register inserts a Participant for the connection. A duplicate
// connection id is overwritten (should not occur in practice).
func (r *Registry) Register(connectionID string, user model.User) model.Participant {
	p := model.Participant{
		ConnectionID: connectionID,
		UserID:       user.ID,
		Username:     user.Username,
		JoinedAt:     time.Now(),
	}

	r.mu.Lock()
	r.participants[connectionID] = p
	r.mu.Unlock()

	return p
}

// Unregister removes the connection's Participant. The second return
// is false when the connection never completed a join — the caller
// must then skip the leave broadcast.
func (r *Registry) Unregister(connectionID string) (model.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connectionID]
	if ok {
		delete(r.participants, connectionID)
	}
	return p, ok
}

// Get returns the Participant for a connection, if it has joined.
func (r *Registry) Get(connectionID string) (model.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[connectionID]
	return p, ok
}

// Snapshot returns the current participants ordered by join time.
// 順序自体に意味はないが、1回の呼び出し内で安定していればよい。
func (r *Registry) Snapshot() []model.Participant {
	r.mu.RLock()
	list := make([]model.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		list = append(list, p)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].JoinedAt.Equal(list[j].JoinedAt) {
			return list[i].ConnectionID < list[j].ConnectionID
		}
		return list[i].JoinedAt.Before(list[j].JoinedAt)
	})
	return list
}
