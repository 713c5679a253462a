package actor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/config"
	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/metrics"
	"github.com/advanliempt/homebridge-hue/internal/mqtt"
	"github.com/advanliempt/homebridge-hue/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config         *config.Config
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         *mqtt.MQTTClient
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	logger         *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type OnEventStreamMessage struct {
	message any
}

type publishResult struct {
	ReplyTo *actor.PID
	Error   error
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")
		send := actorutil.SelfSender(ctx)

		// updates published before the broker is connected get stashed
		if state.eventStream != nil {
			state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
				send(OnEventStreamMessage{message: value})
			})
		}

		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil,
			func(_ pahomqtt.Client, err error) {
				send(MQTTConnectionLost{Error: err})
			})

		state.client.Connect(func(err error) {
			if err != nil {
				send(MQTTConnectionLost{Error: err})
			} else {
				send(MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")
		send := actorutil.SelfSender(ctx)

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		state.client.SubscribeToCommandTopics(func(c pahomqtt.Client, m pahomqtt.Message) {
			cmd, err := state.client.ParseMQTTCommand(m)
			if err != nil {
				state.logger.Warn("mqtt@default invalid command", zap.String("topic", m.Topic()), zap.Error(err))
				return
			}
			send(ParsedCommand{Command: cmd})
		}, func(err error) {
			if err != nil {
				send(MQTTConnectionLost{Error: err})
			} else {
				send(MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		state.logger.Debug("mqtt@starting subscribed")
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// let the supervisor restart us
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: state.client.IsConnected(),
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case OnEventStreamMessage:
		if ev, ok := msg.message.(domain.SensorUpdateEvent); ok {
			state.logger.Debug("mqtt@default OnEventStreamMessage", zap.String("type", fmt.Sprintf("%T", ev)))
			state.publishSensorValue(ctx, ev, false, nil)
		}
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.String("topic", msg.Topic))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishSensorUpdateRequest:
		state.logger.Debug("mqtt@default PublishSensorUpdateRequest", zap.String("type", fmt.Sprintf("%T", msg.Event)))
		state.publishSensorValue(ctx, msg.Event, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishDiscoveryRequest")
		err := state.PublishHomeAssistantDiscovery(msg)
		if err != nil {
			state.logger.Error("mqtt@default PublishDiscoveryRequest error", zap.Error(err))
		}
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{
			ActorResponseMixIn: domain.Failed(err),
		})
	case MQTTConnectionLost:
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) event2MQTTMessage(event domain.SensorUpdateEvent) *rawMessage {
	switch msg := event.(type) {
	case domain.FloatSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.Id),
			message: formatFloat(msg.Value, msg.Decimals),
			retain:  true,
		}
	case domain.BinarySensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.BinarySensorStateTopic(msg.Id),
			message: bool2MQTTPayload(msg.Value),
			retain:  true,
		}
	case domain.SwitchSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SwitchStateTopic(msg.Id),
			message: bool2MQTTPayload(msg.Value),
			retain:  true,
		}
	case domain.InputNumberSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.InputNumberStateTopic(msg.Id),
			message: formatFloat(msg.Value, msg.Decimals),
			retain:  true,
		}
	case domain.TextSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.Id),
			message: msg.Value,
			retain:  true,
		}
	case domain.ButtonPressEvent:
		// presses are not state, never retained
		payload, _ := json.Marshal(mqtt.EventPayload{EventType: msg.Action.String()})
		return &rawMessage{
			topic:   state.client.EventStateTopic(msg.Id),
			message: string(payload),
		}
	case domain.BridgeStateUpdateEvent:
		var stringMessage string
		if msg.Value {
			stringMessage = mqtt.MQTT_PAYLOAD_ONLINE
		} else {
			stringMessage = mqtt.MQTT_PAYLOAD_OFFLINE
		}
		return &rawMessage{
			topic:   state.client.BridgeStateTopic(),
			message: stringMessage,
			retain:  true,
		}
	default:
		return nil
	}
}

func (state *MQTTActor) publishSensorValue(ctx actor.Context, event domain.SensorUpdateEvent, retain bool, replyTo *actor.PID) {
	msg := state.event2MQTTMessage(event)
	if msg == nil {
		if replyTo != nil {
			ctx.Send(replyTo, domain.PublishSensorUpdateResponse{})
		}
		return
	}
	countUpdate(event)
	state.logger.Debug("mqtt@publish sensor publish", zap.String("topic", msg.topic), zap.String("payload", msg.message))
	send := actorutil.SelfSender(ctx)
	state.client.Publish(msg.topic, msg.message, 1, msg.retain || retain, func(err error) {
		send(publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.EventPublishResultReceive)
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	state.logger.Debug("mqtt@publish message publish", zap.String("topic", topic), zap.String("payload", payload))
	send := actorutil.SelfSender(ctx)
	state.client.Publish(topic, payload, 1, retain, func(err error) {
		send(publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.MessagePublishResultReceive)
}

func (state *MQTTActor) MessagePublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.Failed(msg.Error),
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) EventPublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishSensorUpdateResponse{
				ActorResponseMixIn: domain.Failed(msg.Error),
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(req domain.PublishDiscoveryRequest) error {
	publish := func(topic string, msg mqtt.HADiscoveryConfig) error {
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		state.client.Publish(topic, payload, 0, true, func(err error) {
			if err != nil {
				state.logger.Warn("mqtt@discovery publish failed", zap.String("topic", topic), zap.Error(err))
			}
		}, 1*time.Second)
		return nil
	}
	for _, s := range req.Sensors {
		if err := publish(state.client.HADiscoverySensorTopic(s), mqtt.GenericSensorToHADiscoveryMessage(state.client, s)); err != nil {
			return err
		}
	}
	for _, s := range req.Switches {
		if err := publish(state.client.HADiscoverySwitchTopic(s), mqtt.GenericSwitchToHADiscoveryMessage(state.client, s)); err != nil {
			return err
		}
	}
	for _, n := range req.InputNumbers {
		if err := publish(state.client.HADiscoveryInputNumberTopic(n), mqtt.GenericInputNumberToHADiscoveryMessage(state.client, n)); err != nil {
			return err
		}
	}
	for _, b := range req.Buttons {
		if err := publish(state.client.HADiscoveryButtonTopic(b), mqtt.GenericButtonToHADiscoveryMessage(state.client, b)); err != nil {
			return err
		}
	}
	for _, e := range req.Events {
		if err := publish(state.client.HADiscoveryEventTopic(e), mqtt.GenericEventToHADiscoveryMessage(state.client, e)); err != nil {
			return err
		}
	}
	return nil
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func countUpdate(event domain.SensorUpdateEvent) {
	switch ev := event.(type) {
	case domain.ButtonPressEvent:
		metrics.ButtonEvents.WithLabelValues(ev.Action.String()).Inc()
	case domain.FloatSensorUpdateEvent, domain.TextSensorUpdateEvent:
		metrics.CharacteristicUpdates.WithLabelValues(domain.SENSOR_TYPE_SENSOR).Inc()
	case domain.BinarySensorUpdateEvent:
		metrics.CharacteristicUpdates.WithLabelValues(domain.SENSOR_TYPE_BINARY).Inc()
	case domain.SwitchSensorUpdateEvent:
		metrics.CharacteristicUpdates.WithLabelValues("switch").Inc()
	case domain.InputNumberSensorUpdateEvent:
		metrics.CharacteristicUpdates.WithLabelValues("number").Inc()
	}
}

func formatFloat(value float64, decimals uint) string {
	return fmt.Sprintf(fmt.Sprintf("%%.%df", decimals), value)
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	} else {
		return mqtt.MQTT_PAYLOAD_OFF
	}
}

// NewTestMQTTActor is an MQTT actor that never connects. Events received
// from the event stream are recorded and can be fetched with GetRecordedEvents.
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

type GetRecordedEvents struct {
}

type GetRecordedEventsResponse struct {
	Events    []domain.SensorUpdateEvent
	Discovery []domain.PublishDiscoveryRequest
	Messages  []rawMessage
}

func (r GetRecordedEventsResponse) Topics() []string {
	var res []string
	for _, m := range r.Messages {
		res = append(res, m.topic)
	}
	return res
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	var recorded GetRecordedEventsResponse
	state.behavior.Become(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case *actor.Stopping:
			if state.eventStreamSub != nil {
				state.eventStream.Unsubscribe(state.eventStreamSub)
				state.eventStreamSub = nil
			}
		case domain.ActorHealthRequest:
			ctx.Respond(domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: true,
				State:   "idle",
			})
		case OnEventStreamMessage:
			if ev, ok := msg.message.(domain.SensorUpdateEvent); ok {
				recorded.Events = append(recorded.Events, ev)
				if raw := state.event2MQTTMessage(ev); raw != nil {
					recorded.Messages = append(recorded.Messages, *raw)
				}
			}
		case ParsedCommand:
			ctx.Send(ctx.Parent(), msg)
		case domain.PublishDiscoveryRequest:
			recorded.Discovery = append(recorded.Discovery, msg)
			actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{})
		case domain.PublishSensorUpdateRequest:
			recorded.Events = append(recorded.Events, msg.Event)
			actorutil.ForRequest(msg).Respond(ctx, domain.PublishSensorUpdateResponse{})
		case domain.PublishMessageRequest:
			recorded.Messages = append(recorded.Messages, rawMessage{topic: msg.Topic, message: msg.Payload, retain: msg.Retain})
			actorutil.ForRequest(msg).Respond(ctx, domain.PublishMessageResponse{})
		case GetRecordedEvents:
			ctx.Respond(recorded)
		}
	})
	// the first message is *actor.Started
	state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
	if state.eventStream != nil {
		send := actorutil.SelfSender(ctx)
		state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
			send(OnEventStreamMessage{message: value})
		})
	}
}
