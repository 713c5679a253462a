package actor

import (
	"fmt"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/config"
	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/events"
	"github.com/advanliempt/homebridge-hue/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const haDiscoveryRetryInterval = 5 * time.Second

// HADiscoveryActor announces the bridge and every accessory to Home Assistant
// once MQTT is up, and again whenever accessories are added.
type HADiscoveryActor struct {
	config           *config.Config
	behavior         actor.Behavior
	stash            *actorutil.Stash
	scheduler        *scheduler.TimerScheduler
	accessoriesActor *actor.PID
	mqttActor        *actor.PID
	published        int

	logger *zap.Logger
}

type haDiscoveryRetry struct {
}

type haDiscoveryRefresh struct {
}

func NewHADiscoveryActor(config *config.Config, accessoriesActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:           config,
		accessoriesActor: accessoriesActor,
		mqttActor:        mqttActor,
		behavior:         actor.NewBehavior(),
		stash:            &actorutil.Stash{},
		logger:           actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.checkMQTT(ctx)
	case haDiscoveryRetry:
		state.checkMQTT(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@starting ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		if !msg.Healthy {
			state.logger.Warn("hadiscovery@starting MQTT not ready, retrying", zap.Duration("in", haDiscoveryRetryInterval))
			state.scheduler.SendOnce(haDiscoveryRetryInterval, ctx.Self(), haDiscoveryRetry{})
			return
		}
		// the bridge device goes out even before the first heartbeat
		ctx.Send(ctx.Self(), haDiscoveryRefresh{})
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.AccessoriesAddedEvent:
		state.logger.Debug("hadiscovery@default AccessoriesAddedEvent", zap.Strings("ids", msg.Ids))
		state.refresh(ctx)
	case haDiscoveryRefresh:
		state.refresh(ctx)
	case domain.GetAccessoriesResponse:
		if msg.HasResponseError() {
			state.logger.Error("hadiscovery@default GetAccessoriesResponse error", zap.Error(msg.GetResponseError()))
			return
		}
		req := state.discoveryRequest(msg.Accessories)
		state.logger.Info("hadiscovery@default publish discovery", zap.Int("accessories", len(msg.Accessories)),
			zap.Int("sensors", len(req.Sensors)), zap.Int("switches", len(req.Switches)),
			zap.Int("numbers", len(req.InputNumbers)), zap.Int("buttons", len(req.Buttons)), zap.Int("events", len(req.Events)))
		ctx.Send(state.mqttActor, req)
		state.published++
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   fmt.Sprintf("idle (%d published)", state.published),
		})
	default:
		state.logger.Debug("hadiscovery@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) checkMQTT(ctx actor.Context) {
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
		return domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: false,
		}
	})
}

func (state *HADiscoveryActor) refresh(ctx actor.Context) {
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.accessoriesActor, domain.GetAccessoriesRequest{}, 3*time.Second), func(err error) any {
		return domain.GetAccessoriesResponse{
			ActorResponseMixIn: domain.Failed(err),
		}
	})
}

func (state *HADiscoveryActor) discoveryRequest(accessories []domain.AccessoryInfo) domain.PublishDiscoveryRequest {
	bridgeDevice := events.BridgeDevice(state.config.MQTT.BaseTopic)
	discovery := events.Discovery{Sensors: events.BridgeSensors(bridgeDevice)}
	for _, info := range accessories {
		discovery.Append(events.AccessoryDiscovery(info, bridgeDevice))
	}
	return domain.PublishDiscoveryRequest{
		Sensors:      discovery.Sensors,
		Switches:     discovery.Switches,
		InputNumbers: discovery.InputNumbers,
		Buttons:      discovery.Buttons,
		Events:       discovery.Events,
	}
}
