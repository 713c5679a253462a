package actor

import (
	"fmt"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/config"
	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	. "github.com/advanliempt/homebridge-hue/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// PollerActor drives the heartbeat: every tick it reads all sensors from the
// bridge and hands the snapshot to the accessories.
type PollerActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	bridgeActor      *actor.PID
	accessoriesActor *actor.PID
	config           *config.Config
	eventStream      *eventstream.EventStream

	beat    int
	online  *bool
	lastErr error

	logger *zap.Logger
}

type heartbeatTick struct {
}

func NewPollerActor(config *config.Config, bridgeActor, accessoriesActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		config:           config,
		bridgeActor:      bridgeActor,
		accessoriesActor: accessoriesActor,
		behavior:         actor.NewBehavior(),
		stash:            &Stash{},
		logger:           ActorLogger(domain.ACTOR_ID_POLLER, logger),
		eventStream:      eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		ctx.Send(ctx.Self(), heartbeatTick{})
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("poller@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@default ActorHealthRequest")
		ctx.Respond(state.health("idle"))
	case heartbeatTick:
		state.logger.Debug("poller@default tick", zap.Int("beat", state.beat+1))
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.bridgeActor, domain.GetSensorsRequest{}, state.pollTimeout()), func(err error) any {
			return domain.GetSensorsResponse{
				ActorResponseMixIn: domain.Failed(err),
			}
		})
		state.behavior.BecomeStacked(state.WaitingSensorsReceive)
	default:
		state.logger.Debug("poller@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PollerActor) WaitingSensorsReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSensorsResponse:
		state.lastErr = msg.GetResponseError()
		if msg.HasResponseError() {
			state.logger.Error("poller@waiting GetSensorsResponse error", zap.Error(msg.GetResponseError()))
			state.setOnline(false)
		} else {
			state.beat++
			state.logger.Debug("poller@waiting GetSensorsResponse", zap.Int("beat", state.beat), zap.Int("sensors", len(msg.Sensors)))
			state.setOnline(true)
			ctx.Send(state.accessoriesActor, domain.SensorHeartbeatRequest{
				Beat:    state.beat,
				Sensors: msg.Sensors,
			})
		}
		state.scheduler.SendOnce(state.interval(), ctx.Self(), heartbeatTick{})
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.health("polling"))
	default:
		state.logger.Debug("poller@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// setOnline publishes the bridge availability when it changes.
func (state *PollerActor) setOnline(online bool) {
	if state.online != nil && *state.online == online {
		return
	}
	state.online = &online
	state.logger.Info("poller@waiting bridge availability changed", zap.Bool("online", online))
	state.eventStream.Publish(domain.BridgeStateUpdateEvent{Value: online})
}

func (state *PollerActor) health(name string) domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_POLLER,
		Healthy: state.lastErr == nil,
		State:   fmt.Sprintf("%s (beat %d)", name, state.beat),
	}
}

func (state *PollerActor) interval() time.Duration {
	return time.Duration(state.config.Bridge.HeartbeatMillis) * time.Millisecond
}

// pollTimeout covers every retry of a poll plus its backoff.
func (state *PollerActor) pollTimeout() time.Duration {
	requestTimeout := time.Duration(state.config.Bridge.RequestTimeoutMillis) * time.Millisecond
	return requestTimeout*time.Duration(state.config.Bridge.PollRetries+2) + time.Second
}
