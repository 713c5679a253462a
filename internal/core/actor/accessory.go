package actor

import (
	"fmt"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/events"
	"github.com/advanliempt/homebridge-hue/internal/core/port"
	"github.com/advanliempt/homebridge-hue/internal/core/service"
	. "github.com/advanliempt/homebridge-hue/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const bridgeWriteTimeout = 10 * time.Second

// AccessoryActor runs the engine of one accessory. Every engine callback runs
// inside Receive, so the accessory is never touched concurrently.
type AccessoryActor struct {
	behavior    actor.Behavior
	ctx         actor.Context
	scheduler   *scheduler.TimerScheduler
	group       service.Group
	opts        service.Options
	accessory   *service.Accessory
	bridgeActor *actor.PID
	history     *actor.PID
	eventStream *eventstream.EventStream

	specs    map[domain.CharacteristicRef]domain.CharacteristicSpec
	handlers map[string]port.SetHandler
	timers   map[int]scheduler.CancelFunc
	timerSeq int

	logger *zap.Logger
}

type deferred struct {
	fn func()
}

func NewAccessoryActor(group service.Group, opts service.Options, bridgeActor, historyActor *actor.PID,
	eventStream *eventstream.EventStream, logger *zap.Logger) *AccessoryActor {
	act := &AccessoryActor{
		group:       group,
		opts:        opts,
		bridgeActor: bridgeActor,
		history:     historyActor,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		specs:       map[domain.CharacteristicRef]domain.CharacteristicSpec{},
		handlers:    map[string]port.SetHandler{},
		timers:      map[int]scheduler.CancelFunc{},
		logger:      ActorLogger(fmt.Sprintf("%s/%s", domain.ACTOR_ID_ACCESSORY, group.Id), logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *AccessoryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *AccessoryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("accessory@default started", zap.Int("sensors", len(state.group.Sensors)))
		state.ctx = ctx
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.accessory = service.NewAccessory(state.group.Id, state.group.Sensors, state.opts, service.Deps{
			Presentation: accessoryPresentation{state},
			Bridge:       accessoryBridge{state},
			Scheduler:    accessoryScheduler{state},
			History:      accessoryHistory{state},
			Logger:       state.logger,
		})
	case domain.SensorHeartbeatRequest:
		state.accessory.Heartbeat(msg.Beat, msg.Sensors)
	case domain.SensorEventRequest:
		state.logger.Debug("accessory@default SensorEventRequest", zap.String("sensor", msg.Event.Id))
		state.accessory.Event(msg.Event)
	case domain.HistoryTickRequest:
		state.accessory.HistoryTick()
	case domain.SetCharacteristicRequest:
		state.set(ctx, msg)
	case domain.GetAccessoryInfoRequest:
		ctx.Respond(domain.GetAccessoryInfoResponse{Accessory: state.accessory.Info()})
	case deferred:
		msg.fn()
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      state.group.Id,
			Healthy: true,
			State:   "idle",
		})
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("accessory@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *AccessoryActor) set(ctx actor.Context, msg domain.SetCharacteristicRequest) {
	replyTo := ForRequest(msg).ReplyTo(ctx)
	respond := func(err error) {
		if err != nil {
			state.logger.Warn("accessory@default set failed", zap.String("entity", msg.EntityId), zap.Any("value", msg.Value), zap.Error(err))
		}
		if replyTo != nil {
			ctx.Send(replyTo, domain.SetCharacteristicResponse{
				ActorResponseMixIn: domain.Failed(err),
			})
		}
	}
	handler, ok := state.handlers[msg.EntityId]
	if !ok {
		respond(service.ErrUnknownEntity)
		return
	}
	state.logger.Info("accessory@default set", zap.String("entity", msg.EntityId), zap.Any("value", msg.Value))
	handler(msg.Value, respond)
}

func (state *AccessoryActor) stop() {
	if state.accessory != nil {
		state.accessory.Close()
	}
	for id, cancel := range state.timers {
		cancel()
		delete(state.timers, id)
	}
}

// accessoryPresentation publishes characteristic values on the event stream.
type accessoryPresentation struct {
	a *AccessoryActor
}

func (p accessoryPresentation) Expose(spec domain.CharacteristicSpec) {
	p.a.specs[spec.Ref] = spec
}

func (p accessoryPresentation) Update(ref domain.CharacteristicRef, value any) {
	spec, ok := p.a.specs[ref]
	if !ok {
		return
	}
	if ev := events.CharacteristicUpdateEvent(spec, value); ev != nil {
		p.a.eventStream.Publish(ev)
	}
}

func (p accessoryPresentation) OnSet(ref domain.CharacteristicRef, handler port.SetHandler) {
	p.a.handlers[ref.EntityId()] = handler
}

// accessoryBridge sends writes to the bridge actor and completes on the
// accessory's own mailbox.
type accessoryBridge struct {
	a *AccessoryActor
}

func (b accessoryBridge) Request(method, path string, body map[string]any, done func(error)) {
	ctx := b.a.ctx
	future := ctx.RequestFuture(b.a.bridgeActor, domain.BridgeWriteRequest{
		Method: method,
		Path:   path,
		Body:   body,
	}, bridgeWriteTimeout)
	ctx.ReenterAfter(future, func(res any, err error) {
		if err != nil {
			done(err)
			return
		}
		resp, ok := res.(domain.BridgeWriteResponse)
		if !ok {
			done(fmt.Errorf("unexpected response %T", res))
			return
		}
		done(resp.GetResponseError())
	})
}

type accessoryScheduler struct {
	a *AccessoryActor
}

func (s accessoryScheduler) After(d time.Duration, fn func()) func() {
	a := s.a
	a.timerSeq++
	id := a.timerSeq
	// the timer message runs fn only while the id is still registered
	cancel := a.scheduler.SendOnce(d, a.ctx.Self(), deferred{fn: func() {
		if _, ok := a.timers[id]; ok {
			delete(a.timers, id)
			fn()
		}
	}})
	a.timers[id] = cancel
	return func() {
		if c, ok := a.timers[id]; ok {
			c()
			delete(a.timers, id)
		}
	}
}

func (s accessoryScheduler) Defer(fn func()) {
	s.a.ctx.Send(s.a.ctx.Self(), deferred{fn: fn})
}

type accessoryHistory struct {
	a *AccessoryActor
}

func (h accessoryHistory) Record(entry domain.HistoryEntry) {
	if h.a.history == nil {
		h.a.logger.Debug("accessory@history no sink, entry dropped", zap.String("category", string(entry.Category)))
		return
	}
	h.a.ctx.Send(h.a.history, domain.RecordHistoryRequest{Entry: entry.Clone()})
}
