package gateway

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"
)

// Fanout bridges event emission across gateway instances over a single
// shared redis pub/sub topic. Every instance publishes each emitted
// event and subscribes to the topic; an envelope's origin id lets the
// publisher skip its own echo, since it already delivered locally
// before publishing.
type Fanout struct {
	rdb        *redis.Client
	topic      string
	instanceId string
	deliver    func(userId, event string, data json.RawMessage)
}

// NewFanout creates a new Fanout. deliver is invoked for every remote
// envelope addressed to a user; it must only touch local rooms.
func NewFanout(rdb *redis.Client, topic string, deliver func(userId, event string, data json.RawMessage)) *Fanout {
	return &Fanout{
		rdb:        rdb,
		topic:      topic,
		instanceId: uuid.New().String(),
		deliver:    deliver,
	}
}

// InstanceId returns this instance's fan-out identity
func (f *Fanout) InstanceId() string {
	return f.instanceId
}

// Publish broadcasts an event envelope to all instances. Best-effort:
// the local delivery already happened and a broker hiccup only loses
// remote liveness.
func (f *Fanout) Publish(ctx context.Context, userId, event string, data json.RawMessage) {
	if f.rdb == nil {
		return
	}

	payload, err := json.Marshal(&Envelope{
		Origin: f.instanceId,
		UserId: userId,
		Event:  event,
		Data:   data,
	})
	if err != nil {
		log.CtxWarn(ctx, "marshal fanout envelope failed: event=%s, error=%v", event, err)
		return
	}

	if err := f.rdb.Publish(ctx, f.topic, payload).Err(); err != nil {
		log.CtxWarn(ctx, "publish fanout envelope failed: event=%s, user_id=%s, error=%v", event, userId, err)
	}
}

// Run subscribes to the shared topic and delivers remote envelopes until
// ctx is cancelled
func (f *Fanout) Run(ctx context.Context) {
	if f.rdb == nil {
		return
	}

	sub := f.rdb.Subscribe(ctx, f.topic)
	defer sub.Close()

	log.Info("fanout subscribed: topic=%s, instance_id=%s", f.topic, f.instanceId)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			f.handlePayload(ctx, []byte(msg.Payload))
		}
	}
}

// handlePayload decodes one envelope and hands it to local delivery,
// skipping envelopes this instance published itself.
func (f *Fanout) handlePayload(ctx context.Context, payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.CtxWarn(ctx, "decode fanout envelope failed: %v", err)
		return
	}

	if env.Origin == f.instanceId {
		return
	}

	f.deliver(env.UserId, env.Event, env.Data)
}
