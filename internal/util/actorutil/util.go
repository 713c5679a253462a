package actorutil

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

// SelfSender returns a func that sends to the actor from any goroutine, for
// callbacks of client libraries.
func SelfSender(ctx actor.Context) func(msg any) {
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	return func(msg any) {
		root.Send(self, msg)
	}
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand turns a command received over MQTT into a set
// request for the addressed characteristic.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	var value any
	switch cmd.Command {
	case mqtt.COMMAND_SWITCH:
		switch cmd.Payload {
		case mqtt.MQTT_PAYLOAD_ON:
			value = true
		case mqtt.MQTT_PAYLOAD_OFF:
			value = false
		default:
			return nil, errors.Errorf("invalid switch payload %q", cmd.Payload)
		}
	case mqtt.COMMAND_NUMBER:
		v, err := strconv.ParseFloat(cmd.Payload, 64)
		if err != nil {
			return nil, errors.Wrap(err, "invalid number payload")
		}
		value = v
	case mqtt.COMMAND_BUTTON:
		value = true
	default:
		return nil, errors.Errorf("unknown command %q", cmd.Command)
	}
	return domain.SetCharacteristicRequest{
		EntityId: cmd.DeviceId,
		Value:    value,
	}, nil
}
