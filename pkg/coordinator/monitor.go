package coordinator

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/voidshard/foreman/pkg/structs"
)

const (
	MonitorKindEvent     = "event"
	MonitorKindProgress  = "progress"
	MonitorKindHeartbeat = "heartbeat"

	publishTimeout = 5 * time.Second
)

// MonitorMessage is what we publish for dashboards, exactly one of the pointers is set.
type MonitorMessage struct {
	Kind     string                  `json:"kind"`
	Agent    *structs.AgentRef       `json:"agent,omitempty"`
	Event    *structs.TaskEvent      `json:"event,omitempty"`
	Progress *structs.ProgressRecord `json:"progress,omitempty"`
	Health   *structs.HealthRecord   `json:"health,omitempty"`
}

// LogMonitor logs everything it's told, remembers the latest heartbeat per agent
// and optionally publishes to redis.
type LogMonitor struct {
	lock   sync.Mutex
	agents map[string]*structs.HealthRecord

	client  *redis.Client
	channel string
}

// NewMonitor returns a monitor, client may be nil in which case nothing is published.
func NewMonitor(client *redis.Client) *LogMonitor {
	return &LogMonitor{
		agents:  map[string]*structs.HealthRecord{},
		client:  client,
		channel: ChannelMonitor,
	}
}

func (m *LogMonitor) TaskEvent(e *structs.TaskEvent) {
	if e == nil {
		return
	}
	fields := []zap.Field{
		zap.String("event", string(e.EventType)),
		zap.Int64("task", e.TaskID),
		zap.String("app", e.AppID),
		zap.String("title", e.Title),
	}
	if e.Agent != "" {
		fields = append(fields, zap.String("agent", e.Agent))
	}
	if e.SubtaskID != "" {
		fields = append(fields, zap.String("subtask", e.SubtaskID))
	}
	if e.EventType == structs.EventFailed {
		zap.L().Warn("task event", append(fields, zap.String("details", e.Details))...)
	} else {
		zap.L().Info("task event", fields...)
	}
	m.publish(&MonitorMessage{Kind: MonitorKindEvent, Event: e})
}

func (m *LogMonitor) Progress(ref structs.AgentRef, p *structs.ProgressRecord) {
	if p == nil {
		return
	}
	zap.L().Debug("task progress",
		zap.Int64("task", p.TaskID),
		zap.String("agent", ref.Agent),
		zap.String("details", p.Details),
	)
	m.publish(&MonitorMessage{Kind: MonitorKindProgress, Agent: &ref, Progress: p})
}

func (m *LogMonitor) Heartbeat(h *structs.HealthRecord) {
	if h == nil {
		return
	}
	m.lock.Lock()
	m.agents[h.Machine+"/"+h.Agent] = h
	m.lock.Unlock()

	zap.L().Debug("agent heartbeat",
		zap.String("machine", h.Machine),
		zap.String("agent", h.Agent),
		zap.String("state", string(h.EventType)),
		zap.Float64("cpu", h.CPU),
		zap.Uint64("ram", h.RAM),
	)
	m.publish(&MonitorMessage{Kind: MonitorKindHeartbeat, Health: h})
}

func (m *LogMonitor) Agents() []*structs.HealthRecord {
	m.lock.Lock()
	out := make([]*structs.HealthRecord, 0, len(m.agents))
	for _, h := range m.agents {
		out = append(out, h)
	}
	m.lock.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Machine != out[j].Machine {
			return out[i].Machine < out[j].Machine
		}
		return out[i].Agent < out[j].Agent
	})
	return out
}

func (m *LogMonitor) publish(msg *MonitorMessage) {
	if m.client == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		zap.L().Error("failed to encode monitor message", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err = m.client.Publish(ctx, m.channel, data).Err()
	if err != nil {
		zap.L().Warn("failed to publish monitor message", zap.String("kind", msg.Kind), zap.Error(err))
	}
}
