package actor

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	adactor "github.com/advanliempt/homebridge-hue/internal/adapter/actor"
	"github.com/advanliempt/homebridge-hue/internal/config"
	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/registry"
	"github.com/advanliempt/homebridge-hue/internal/core/service"
	. "github.com/advanliempt/homebridge-hue/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type BridgeActorProvider func() *adactor.BridgeActor

type BridgeEventsActorProvider func() *adactor.BridgeEventsActor

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type HistoryActorProvider func() *adactor.HistoryActor

// Providers build the IO actors of the master. BridgeEvents and History are
// optional.
type Providers struct {
	Bridge       BridgeActorProvider
	BridgeEvents BridgeEventsActorProvider
	MQTT         MQTTActorProvider
	History      HistoryActorProvider
}

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	bridgeActor        *actor.PID
	mqttActor          *actor.PID
	historyActor       *actor.PID
	accessoriesActor   *actor.PID
	haDiscoveryActor   *actor.PID
	// children taking part in the health check, by actor id
	children  map[string]*actor.PID
	providers Providers
	logger    *zap.Logger
}

type healthCheckResult struct {
	healthy        map[string]bool
	checksReceived int
	expected       int
	respondTo      *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, providers Providers, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream: &eventstream.EventStream{},
		children:    map[string]*actor.PID{},
		providers:   providers,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset(0)

		if err := state.startChildren(ctx); err != nil {
			panic(err)
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startChildren(ctx actor.Context) error {
	var err error

	// IO actors first, the core actors need their PIDs
	if state.bridgeActor, err = state.startIOActor(ctx, domain.ACTOR_ID_BRIDGE, func() actor.Actor {
		return state.providers.Bridge()
	}); err != nil {
		return err
	}
	state.children[domain.ACTOR_ID_BRIDGE] = state.bridgeActor

	if state.mqttActor, err = state.startIOActor(ctx, domain.ACTOR_ID_MQTT, func() actor.Actor {
		return state.providers.MQTT(state.eventStream)
	}); err != nil {
		return err
	}
	state.children[domain.ACTOR_ID_MQTT] = state.mqttActor

	if state.providers.History != nil {
		if state.historyActor, err = state.startIOActor(ctx, domain.ACTOR_ID_HISTORY, func() actor.Actor {
			return state.providers.History()
		}); err != nil {
			return err
		}
		state.children[domain.ACTOR_ID_HISTORY] = state.historyActor
	}

	if state.accessoriesActor, err = state.startCoreActor(ctx, domain.ACTOR_ID_ACCESSORY_GROUP, func() actor.Actor {
		return NewAccessoriesActor(state.serviceOptions(), state.historyInterval(), state.bridgeActor, state.historyActor, state.eventStream, state.logger)
	}); err != nil {
		return err
	}
	state.children[domain.ACTOR_ID_ACCESSORY_GROUP] = state.accessoriesActor

	if state.providers.BridgeEvents != nil {
		pid, err := state.startIOActor(ctx, domain.ACTOR_ID_BRIDGE_EVENTS, func() actor.Actor {
			return state.providers.BridgeEvents()
		})
		if err != nil {
			return err
		}
		state.children[domain.ACTOR_ID_BRIDGE_EVENTS] = pid
	}

	pollerPID, err := state.startCoreActor(ctx, domain.ACTOR_ID_POLLER, func() actor.Actor {
		return NewPollerActor(&state.config, state.bridgeActor, state.accessoriesActor, state.eventStream, state.logger)
	})
	if err != nil {
		return err
	}
	state.children[domain.ACTOR_ID_POLLER] = pollerPID

	if state.config.MQTT.HADiscoveryEnable {
		if state.haDiscoveryActor, err = state.startCoreActor(ctx, domain.ACTOR_ID_HA_DISCOVERY, func() actor.Actor {
			return NewHADiscoveryActor(&state.config, state.accessoriesActor, state.mqttActor, state.logger)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset(len(state.children))
		state.currentHealthCheck.respondTo = ctx.Sender()
		for id, pid := range state.children {
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect parsedCommand to the accessories
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err != nil {
				state.logger.Warn("master@default invalid command", zap.String("entity", msg.Command.DeviceId), zap.Error(err))
				return
			}
			ctx.Send(state.accessoriesActor, cmd)
		}
	case domain.SetCharacteristicRequest:
		ctx.Forward(state.accessoriesActor)
	case domain.BridgeEvent:
		ctx.Send(state.accessoriesActor, domain.SensorEventRequest{Event: msg})
	case domain.AccessoriesAddedEvent:
		if state.haDiscoveryActor != nil {
			ctx.Send(state.haDiscoveryActor, msg)
		}
	case domain.GetAccessoriesRequest:
		ctx.Forward(state.accessoriesActor)
	case *actor.Terminated:
		// the bridge actor only stops when its supervisor gave up
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_BRIDGE) {
			state.logger.Error("master@default bridge error")
			panic(errors.New("bridge terminated"))
		}
	default:
		state.logger.Debug("master@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy), zap.String("state", msg.State))
		state.currentHealthCheck.checksReceived++
		if _, ok := state.children[msg.Id]; ok {
			state.currentHealthCheck.healthy[msg.Id] = msg.Healthy
		}
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()
			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startIOActor(ctx actor.Context, id string, producer actor.Producer) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	props := actor.PropsFromProducer(producer, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(props, id)
}

func (state *MasterOfPuppetsActor) startCoreActor(ctx actor.Context, id string, producer actor.Producer) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	props := actor.PropsFromProducer(producer, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(props, id)
}

func (state *MasterOfPuppetsActor) serviceOptions() service.Options {
	return service.Options{
		LowBattery:     state.config.Sensors.LowBattery,
		ExposeResource: state.config.Sensors.Resource,
		Registry: registry.Options{
			DimmerRepeat: state.config.Sensors.HueDimmerRepeat,
		},
	}
}

func (state *MasterOfPuppetsActor) historyInterval() time.Duration {
	return time.Duration(state.config.History.IntervalSeconds) * time.Second
}

func (state *healthCheckResult) reset(expected int) {
	state.healthy = map[string]bool{}
	state.checksReceived = 0
	state.expected = expected
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived >= state.expected
}

func (state *healthCheckResult) unhealthy() []string {
	var res []string
	for id, healthy := range state.healthy {
		if !healthy {
			res = append(res, id)
		}
	}
	slices.Sort(res)
	return res
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	unhealthy := state.unhealthy()
	healthy := len(state.healthy) == state.expected && len(unhealthy) == 0
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: healthy,
		State:   "healthy",
	}
	if !healthy {
		resp.State = fmt.Sprintf("unhealthy: %s", strings.Join(unhealthy, ","))
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
