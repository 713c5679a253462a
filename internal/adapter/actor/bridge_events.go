package actor

import (
	"context"
	"fmt"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/util/actorutil"
	"github.com/advanliempt/homebridge-hue/pkg/hue"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type EventSource interface {
	Listen(ctx context.Context, onEvent func(hue.SensorEvent)) error
}

// BridgeEventsActor forwards the changes pushed by the bridge to its parent
// as domain.BridgeEvent.
type BridgeEventsActor struct {
	behavior actor.Behavior
	source   EventSource
	cancel   context.CancelFunc
	events   int
	logger   *zap.Logger
}

type onSensorEvent struct {
	event hue.SensorEvent
}

type listenerStopped struct {
	err error
}

func NewBridgeEventsActor(source EventSource, logger *zap.Logger) *BridgeEventsActor {
	act := &BridgeEventsActor{
		source:   source,
		behavior: actor.NewBehavior(),
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_BRIDGE_EVENTS, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *BridgeEventsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *BridgeEventsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("bridge_events@default started")
		state.start(ctx)
	case onSensorEvent:
		state.events++
		ctx.Send(ctx.Parent(), domain.BridgeEvent{
			Id:     msg.event.Id,
			State:  msg.event.State,
			Config: msg.event.Config,
		})
	case listenerStopped:
		// the listener only returns on its own when it gave up reconnecting
		if msg.err != nil {
			state.logger.Error("bridge_events@default listener stopped", zap.Error(msg.err))
			panic(msg.err)
		}
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_BRIDGE_EVENTS,
			Healthy: true,
			State:   fmt.Sprintf("listening (%d events)", state.events),
		})
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("bridge_events@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *BridgeEventsActor) start(ctx actor.Context) {
	c, cancel := context.WithCancel(context.Background())
	state.cancel = cancel
	send := actorutil.SelfSender(ctx)
	go func() {
		err := state.source.Listen(c, func(ev hue.SensorEvent) {
			send(onSensorEvent{event: ev})
		})
		if c.Err() == nil {
			send(listenerStopped{err: err})
		}
	}()
}

func (state *BridgeEventsActor) stop() {
	if state.cancel != nil {
		state.cancel()
		state.cancel = nil
	}
}
