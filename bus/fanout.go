package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Fanout bridges the in-process refresh bus across service instances via
// a Redis channel. Local publishes are dispatched synchronously first and
// then broadcast; remote events are replayed onto the local bus.
type Fanout struct {
	local   *Refresh
	redis   *redis.Client
	channel string
	origin  string
	logger  *log.Logger
}

// NewFanout wires the local bus to the given Redis channel.
func NewFanout(local *Refresh, rc *redis.Client, channel string, logger *log.Logger) *Fanout {
	return &Fanout{
		local:   local,
		redis:   rc,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Publish dispatches the event locally, then broadcasts it. A broadcast
// failure is logged and swallowed: the local session already refreshed,
// and other instances fall back to their cache TTL.
func (f *Fanout) Publish(ctx context.Context, ev Event) {
	ev.Origin = f.origin
	f.local.Publish(ev)

	data, err := json.Marshal(ev)
	if err != nil {
		f.logger.Errorf("marshal refresh event: %v", err)
		return
	}
	if err := f.redis.Publish(ctx, f.channel, data).Err(); err != nil {
		f.logger.Errorf("broadcast refresh event: %v", err)
	}
}

// Listen consumes broadcasts from other instances until ctx is cancelled,
// reconnecting when the pubsub channel drops.
func (f *Fanout) Listen(ctx context.Context) {
	for {
		sub := f.redis.Subscribe(ctx, f.channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					f.logger.Errorf("unable to parse refresh event: %v", err)
					continue
				}
				if ev.Origin == f.origin {
					continue
				}
				f.local.Publish(ev)
			}
		}
		if ctx.Err() != nil {
			return
		}
		f.logger.Error("refresh pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}
