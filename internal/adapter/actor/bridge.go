package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/metrics"
	"github.com/advanliempt/homebridge-hue/internal/util/actorutil"
	"github.com/advanliempt/homebridge-hue/pkg/hue"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// BridgeActor owns the bridge client. Polls are serialized, writes run
// concurrently with them.
type BridgeActor struct {
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         hue.BridgeClient
	requestTimeout time.Duration
	// attempts per poll, for the poll task timeout
	pollAttempts  uint
	lastPollError error
	logger        *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
	poll    bool
}

func NewBridgeActor(client hue.BridgeClient, requestTimeout time.Duration, pollRetries uint, logger *zap.Logger) *BridgeActor {
	act := &BridgeActor{
		client:         client,
		requestTimeout: requestTimeout,
		pollAttempts:   pollRetries + 1,
		behavior:       actor.NewBehavior(),
		stash:          &actorutil.Stash{},
		logger:         actorutil.ActorLogger(domain.ACTOR_ID_BRIDGE, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *BridgeActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *BridgeActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("bridge@starting started")
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("bridge@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *BridgeActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("bridge@default ActorHealthRequest")
		ctx.Respond(state.health("idle"))
	case domain.GetSensorsRequest:
		state.logger.Debug("bridge@default GetSensorsRequest")
		state.poll(ctx, actorutil.ForRequest(msg).ReplyTo(ctx))
		state.behavior.BecomeStacked(state.WaitingPoll)
	case domain.BridgeWriteRequest:
		state.write(ctx, msg)
	case backgroundTaskResult:
		state.deliver(ctx, msg)
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("bridge@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// WaitingPoll holds further polls until the running one completes.
func (state *BridgeActor) WaitingPoll(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(state.health("polling"))
	case domain.BridgeWriteRequest:
		state.write(ctx, msg)
	case backgroundTaskResult:
		state.deliver(ctx, msg)
		if msg.poll {
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		}
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("bridge@polling stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *BridgeActor) health(name string) domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_BRIDGE,
		Healthy: state.lastPollError == nil,
		State:   name,
	}
}

func (state *BridgeActor) deliver(ctx actor.Context, msg backgroundTaskResult) {
	state.logger.Debug("bridge@default backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
	if resp, ok := msg.message.(domain.GetSensorsResponse); ok {
		state.lastPollError = resp.ResponseError
		if resp.ResponseError != nil {
			state.logger.Warn("bridge@default poll failed", zap.Error(resp.ResponseError))
		}
	}
	if msg.replyTo != nil {
		ctx.Send(msg.replyTo, msg.message)
	}
}

func (state *BridgeActor) poll(ctx actor.Context, sender *actor.PID) {
	timeout := state.requestTimeout * time.Duration(state.pollAttempts+1)
	actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.GetSensorsResponse, error) {
		return state.getSensors(timeout)
	}), mapPollResult(sender)).Recover(func(err error) backgroundTaskResult {
		return backgroundTaskResult{
			message: domain.GetSensorsResponse{
				ActorResponseMixIn: domain.Failed(err),
			},
			replyTo: sender,
			poll:    true,
		}
	}).WithTimeout(timeout + time.Second).PipeTo(ctx.Self())
}

func (state *BridgeActor) write(ctx actor.Context, msg domain.BridgeWriteRequest) {
	state.logger.Debug("bridge@default BridgeWriteRequest", zap.String("method", msg.Method), zap.String("path", msg.Path))
	sender := actorutil.ForRequest(msg).ReplyTo(ctx)
	actorutil.NewBackgroundTaskNoError(ctx, func() *backgroundTaskResult {
		err := state.writeResource(msg.Method, msg.Path, msg.Body)
		return &backgroundTaskResult{
			message: domain.BridgeWriteResponse{
				ActorResponseMixIn: domain.Failed(err),
			},
			replyTo: sender,
		}
	}).Recover(func(err error) backgroundTaskResult {
		return backgroundTaskResult{
			message: domain.BridgeWriteResponse{
				ActorResponseMixIn: domain.Failed(err),
			},
			replyTo: sender,
		}
	}).WithTimeout(state.requestTimeout + time.Second).PipeTo(ctx.Self())
}

func (state *BridgeActor) getSensors(timeout time.Duration) (*domain.GetSensorsResponse, error) {
	c, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sensors, err := state.client.GetSensors(c)
	metrics.BridgeRequests.WithLabelValues("poll", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	objs := make([]domain.SensorObject, 0, len(sensors))
	for _, s := range sensors {
		objs = append(objs, SensorToObject(s))
	}
	return &domain.GetSensorsResponse{Sensors: objs}, nil
}

func (state *BridgeActor) writeResource(method, path string, body map[string]any) error {
	c, cancel := context.WithTimeout(context.Background(), state.requestTimeout)
	defer cancel()
	err := state.client.Write(c, method, path, body)
	metrics.BridgeRequests.WithLabelValues("write", metrics.Result(err)).Inc()
	if err != nil {
		state.logger.Error("bridge@default write failed", zap.String("path", path), zap.Error(err))
	}
	return err
}

func (state *BridgeActor) stop() {
	if err := state.client.Close(); err != nil {
		state.logger.Warn("bridge@stopping close failed", zap.Error(err))
	}
}

// SensorToObject converts a bridge sensor to the snapshot the engine works on.
func SensorToObject(s hue.Sensor) domain.SensorObject {
	return domain.SensorObject{
		Id:           s.Id,
		Name:         s.Name,
		Type:         s.Type,
		Manufacturer: s.Manufacturer,
		Model:        s.Model,
		UniqueId:     s.UniqueId,
		SwVersion:    s.SwVersion,
		State:        s.State,
		Config:       s.Config,
	}.Clone()
}

func mapPollResult(sender *actor.PID) func(t *domain.GetSensorsResponse) *backgroundTaskResult {
	return func(t *domain.GetSensorsResponse) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
			poll:    true,
		}
	}
}
