package actor

import (
	"fmt"

	"github.com/advanliempt/homebridge-hue/internal/adapter/history"
	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/metrics"
	"github.com/advanliempt/homebridge-hue/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HistoryActor writes committed history entries to a time series store.
type HistoryActor struct {
	behavior actor.Behavior
	writer   history.Writer
	written  int
	logger   *zap.Logger
}

func NewHistoryActor(writer history.Writer, logger *zap.Logger) *HistoryActor {
	act := &HistoryActor{
		writer:   writer,
		behavior: actor.NewBehavior(),
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_HISTORY, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *HistoryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HistoryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.RecordHistoryRequest:
		state.logger.Debug("history@default RecordHistoryRequest", zap.String("accessory", msg.Entry.Accessory),
			zap.String("category", string(msg.Entry.Category)))
		state.writer.WritePoint(history.EntryToPoint(msg.Entry))
		state.written++
		metrics.HistoryCommits.WithLabelValues(string(msg.Entry.Category)).Inc()
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HISTORY,
			Healthy: true,
			State:   fmt.Sprintf("idle (%d written)", state.written),
		})
	case *actor.Stopping:
		state.writer.Flush()
	}
}
