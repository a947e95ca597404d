package coordinator

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/metrics"
	"github.com/voidshard/foreman/pkg/structs"
)

const (
	// subscriberBuffer is how many pushes may queue for a slow agent before we drop
	subscriberBuffer = 16
)

type subscriber struct {
	ref  structs.AgentRef
	caps []string
	ch   chan *structs.Push
}

// Hub fans pushes out to the agent streams open on this process.
type Hub struct {
	lock sync.RWMutex
	next int64
	subs map[int64]*subscriber
}

func NewHub() *Hub {
	return &Hub{subs: map[int64]*subscriber{}}
}

// Subscribe registers an agent stream. The returned func must be called when the
// stream closes, after which the channel is closed.
func (h *Hub) Subscribe(ref structs.AgentRef, caps []string) (<-chan *structs.Push, func()) {
	sub := &subscriber{ref: ref, caps: caps, ch: make(chan *structs.Push, subscriberBuffer)}

	h.lock.Lock()
	h.next++
	id := h.next
	h.subs[id] = sub
	count := len(h.subs)
	h.lock.Unlock()

	metrics.SetConnectedAgents(count)
	zap.L().Info("agent connected", zap.String("machine", ref.Machine), zap.String("agent", ref.Agent), zap.Strings("capabilities", caps))

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.lock.Lock()
			delete(h.subs, id)
			count := len(h.subs)
			close(sub.ch)
			h.lock.Unlock()

			metrics.SetConnectedAgents(count)
			zap.L().Info("agent disconnected", zap.String("machine", ref.Machine), zap.String("agent", ref.Agent))
		})
	}
}

// Broadcast sends a new task push to every open stream. An agent whose buffer is
// full already has a wake up pending, so the push is dropped for it.
func (h *Hub) Broadcast(ctx context.Context, task *structs.Task) error {
	push := &structs.Push{Type: structs.PushNewTask, Task: task}

	h.lock.RLock()
	defer h.lock.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- push:
		default:
			zap.L().Debug("agent stream full, dropping push", zap.String("agent", sub.ref.Agent))
		}
	}
	return nil
}

// Connected lists agents with an open stream.
func (h *Hub) Connected() []structs.AgentRef {
	h.lock.RLock()
	refs := make([]structs.AgentRef, 0, len(h.subs))
	for _, sub := range h.subs {
		refs = append(refs, sub.ref)
	}
	h.lock.RUnlock()

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Machine != refs[j].Machine {
			return refs[i].Machine < refs[j].Machine
		}
		return refs[i].Agent < refs[j].Agent
	})
	return refs
}
