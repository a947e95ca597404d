package coordinator

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/voidshard/foreman/pkg/structs"
)

const (
	ChannelNewTask = "foreman:new_task"
	ChannelMonitor = "foreman:monitor"
)

// RedisRelay shares broadcasts between coordinator replicas. Broadcast publishes
// to redis, Run delivers everything published (by any replica) to the local Hub.
type RedisRelay struct {
	client  *redis.Client
	local   Broadcaster
	channel string
}

func NewRedisRelay(client *redis.Client, local Broadcaster) *RedisRelay {
	return &RedisRelay{client: client, local: local, channel: ChannelNewTask}
}

func (r *RedisRelay) Broadcast(ctx context.Context, task *structs.Task) error {
	data, err := json.Marshal(&structs.Push{Type: structs.PushNewTask, Task: task})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Run relays published pushes until the context is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed so nothing published after Run
	// starts is missed
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			push := &structs.Push{}
			err := json.Unmarshal([]byte(msg.Payload), push)
			if err != nil {
				zap.L().Warn("ignoring malformed push from redis", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			err = r.local.Broadcast(ctx, push.Task)
			if err != nil {
				zap.L().Error("failed to relay push", zap.Error(err))
			}
		}
	}
}
