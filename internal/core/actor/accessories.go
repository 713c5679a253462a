package actor

import (
	"cmp"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/service"
	"github.com/advanliempt/homebridge-hue/internal/metrics"
	. "github.com/advanliempt/homebridge-hue/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

var ErrUnknownAccessory = errors.New("no accessory owns this entity")

// AccessoriesActor creates one accessory actor per sensor group on the first
// heartbeat it sees the group in, and routes bridge traffic and set requests
// to the owner.
type AccessoriesActor struct {
	ActorWithStates
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	opts           service.Options
	historyEvery   time.Duration
	bridgeActor    *actor.PID
	historyActor   *actor.PID
	eventStream    *eventstream.EventStream
	accessories    map[string]*actor.PID
	sensorOwner    map[string]string
	collecting     accessoriesCollection
	logger         *zap.Logger
}

type accessoriesCollection struct {
	expected  int
	collected []domain.AccessoryInfo
	respondTo *actor.PID
}

type historyTick struct{}

func NewAccessoriesActor(opts service.Options, historyEvery time.Duration, bridgeActor, historyActor *actor.PID,
	eventStream *eventstream.EventStream, logger *zap.Logger) *AccessoriesActor {
	act := &AccessoriesActor{
		ActorWithStates: NewActorWithStates(),
		stash:           &Stash{},
		opts:            opts,
		historyEvery:    historyEvery,
		bridgeActor:     bridgeActor,
		historyActor:    historyActor,
		eventStream:     eventStream,
		accessories:     map[string]*actor.PID{},
		sensorOwner:     map[string]string{},
		logger:          ActorLogger(domain.ACTOR_ID_ACCESSORY_GROUP, logger),
	}
	act.Become(AccessoriesWaitingState{actor: act})
	return act
}

func (state *AccessoriesActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// AccessoriesWaitingState is the state before the first heartbeat. Events and
// set requests wait for the accessories to exist.
type AccessoriesWaitingState struct {
	actor *AccessoriesActor
}

func (s AccessoriesWaitingState) Name() string {
	return "waiting"
}

func (s AccessoriesWaitingState) Receive(ctx actor.Context) {
	state := s.actor
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("accessories@waiting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		if state.historyEvery > 0 {
			state.scheduler.SendRepeatedly(state.historyEvery, state.historyEvery, ctx.Self(), historyTick{})
		}
	case domain.SensorHeartbeatRequest:
		state.logger.Info("accessories@waiting first heartbeat", zap.Int("sensors", len(msg.Sensors)))
		state.heartbeat(ctx, msg)
		state.Become(AccessoriesReadyState{actor: state})
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.health())
	case domain.GetAccessoriesRequest:
		ForRequest(msg).Respond(ctx, domain.GetAccessoriesResponse{})
	case historyTick:
	default:
		state.logger.Debug("accessories@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

type AccessoriesReadyState struct {
	actor *AccessoriesActor
}

func (s AccessoriesReadyState) Name() string {
	return "ready"
}

func (s AccessoriesReadyState) Receive(ctx actor.Context) {
	state := s.actor
	switch msg := ctx.Message().(type) {
	case domain.SensorHeartbeatRequest:
		state.heartbeat(ctx, msg)
	case domain.SensorEventRequest:
		owner, ok := state.sensorOwner[msg.Event.Id]
		if !ok {
			state.logger.Debug("accessories@ready event for unknown sensor", zap.String("sensor", msg.Event.Id))
			return
		}
		ctx.Send(state.accessories[owner], msg)
	case domain.SetCharacteristicRequest:
		owner, ok := state.entityOwner(msg.EntityId)
		if !ok {
			state.logger.Warn("accessories@ready set for unknown entity", zap.String("entity", msg.EntityId))
			ForRequest(msg).Respond(ctx, domain.SetCharacteristicResponse{
				ActorResponseMixIn: domain.Failed(ErrUnknownAccessory),
			})
			return
		}
		if msg.ReplyToRef == nil && ctx.Sender() != nil {
			msg.ReplyToRef = RefOf(ctx.Sender())
		}
		ctx.Send(state.accessories[owner], msg)
	case historyTick:
		state.logger.Debug("accessories@ready history tick")
		for _, pid := range state.accessories {
			ctx.Send(pid, domain.HistoryTickRequest{})
		}
	case domain.GetAccessoriesRequest:
		state.collecting = accessoriesCollection{
			expected:  len(state.accessories),
			respondTo: ForRequest(msg).ReplyTo(ctx),
		}
		if len(state.accessories) == 0 {
			state.collecting.respond(ctx)
			return
		}
		for id, pid := range state.accessories {
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.GetAccessoryInfoRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.GetAccessoryInfoResponse{
					ActorResponseMixIn: domain.Failed(err),
					Accessory:          domain.AccessoryInfo{Id: id},
				}
			})
		}
		ctx.SetReceiveTimeout(1 * time.Second)
		state.BecomeStacked(AccessoriesCollectingState{actor: state})
	case domain.ActorHealthRequest:
		ctx.Respond(state.health())
	default:
		state.logger.Debug("accessories@ready default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// AccessoriesCollectingState gathers the info of every accessory for a
// GetAccessoriesRequest.
type AccessoriesCollectingState struct {
	actor *AccessoriesActor
}

func (s AccessoriesCollectingState) Name() string {
	return "collecting"
}

func (s AccessoriesCollectingState) Receive(ctx actor.Context) {
	state := s.actor
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		state.logger.Warn("accessories@collecting timeout", zap.Int("missing", state.collecting.expected))
		state.finishCollecting(ctx)
	case domain.GetAccessoryInfoResponse:
		state.collecting.expected--
		if msg.HasResponseError() {
			state.logger.Warn("accessories@collecting no info", zap.String("accessory", msg.Accessory.Id), zap.Error(msg.GetResponseError()))
		} else {
			state.collecting.collected = append(state.collecting.collected, msg.Accessory)
		}
		if state.collecting.expected <= 0 {
			state.finishCollecting(ctx)
		}
	case domain.ActorHealthRequest:
		ctx.Respond(state.health())
	default:
		state.stash.Stash(ctx, msg)
	}
}

func (state *AccessoriesActor) finishCollecting(ctx actor.Context) {
	ctx.CancelReceiveTimeout()
	state.collecting.respond(ctx)
	state.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

func (c *accessoriesCollection) respond(ctx actor.Context) {
	slices.SortFunc(c.collected, func(a, b domain.AccessoryInfo) int { return cmp.Compare(a.Id, b.Id) })
	if c.respondTo != nil {
		ctx.Send(c.respondTo, domain.GetAccessoriesResponse{Accessories: c.collected})
	}
	*c = accessoriesCollection{}
}

func (state *AccessoriesActor) health() domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_ACCESSORY_GROUP,
		Healthy: true,
		State:   fmt.Sprintf("%s (%d accessories)", state.StateName(), len(state.accessories)),
	}
}

// heartbeat spawns accessories for groups not seen before and hands every
// accessory the snapshots of its own sensors.
func (state *AccessoriesActor) heartbeat(ctx actor.Context, msg domain.SensorHeartbeatRequest) {
	var added []string
	perOwner := map[string][]domain.SensorObject{}
	for _, group := range service.GroupSensors(msg.Sensors) {
		if _, ok := state.accessories[group.Id]; !ok {
			pid, err := state.spawnAccessory(ctx, group)
			if err != nil {
				state.logger.Error("accessories@heartbeat spawn failed", zap.String("accessory", group.Id), zap.Error(err))
				continue
			}
			state.accessories[group.Id] = pid
			for _, obj := range group.Sensors {
				state.sensorOwner[obj.Id] = group.Id
			}
			added = append(added, group.Id)
			// the accessory is built from this snapshot
			continue
		}
		for _, obj := range group.Sensors {
			owner, ok := state.sensorOwner[obj.Id]
			if !ok || owner != group.Id {
				state.logger.Debug("accessories@heartbeat sensor joined after creation, ignored", zap.String("sensor", obj.Id), zap.String("accessory", group.Id))
				continue
			}
			perOwner[owner] = append(perOwner[owner], obj)
		}
	}
	for owner, objs := range perOwner {
		ctx.Send(state.accessories[owner], domain.SensorHeartbeatRequest{Beat: msg.Beat, Sensors: objs})
	}
	if len(added) > 0 {
		state.logger.Info("accessories@heartbeat accessories added", zap.Strings("ids", added))
		metrics.Accessories.Set(float64(len(state.accessories)))
		ctx.Send(ctx.Parent(), domain.AccessoriesAddedEvent{Ids: added})
	}
}

// entityOwner finds the accessory an entity id belongs to. Entity ids start
// with the accessory id, the longest match wins.
func (state *AccessoriesActor) entityOwner(entityId string) (string, bool) {
	best := ""
	for id := range state.accessories {
		if strings.HasPrefix(entityId, id+"_") && len(id) > len(best) {
			best = id
		}
	}
	return best, best != ""
}

func (state *AccessoriesActor) spawnAccessory(ctx actor.Context, group service.Group) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for accessory. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewAccessoryActor(group, state.opts, state.bridgeActor, state.historyActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(props, group.Id)
}
