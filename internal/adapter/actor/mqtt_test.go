package actor

import (
	"testing"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/util"
	"github.com/advanliempt/homebridge-hue/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	es := eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)

	es.Publish(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "00_17_88_01_02_00_af_1c_temperature_temperature"},
		Value:                  21.5,
		Decimals:               1,
	})
	es.Publish(domain.ButtonPressEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "sensor3_button1_button"},
		Action:                 domain.LONG_PRESS,
	})
	// not a sensor update, ignored
	es.Publish("noise")

	time.Sleep(500 * time.Millisecond)

	result, err = context.RequestFuture(pid, GetRecordedEvents{}, 2*time.Second).Result()
	require.NoError(t, err)
	recorded := result.(GetRecordedEventsResponse)
	require.Len(t, recorded.Events, 2)
	require.Len(t, recorded.Messages, 2)

	assert.Equal(t, "hue/sensor/00_17_88_01_02_00_af_1c_temperature_temperature/state", recorded.Messages[0].topic)
	assert.Equal(t, "21.5", recorded.Messages[0].message)
	assert.True(t, recorded.Messages[0].retain)

	assert.Equal(t, "hue/event/sensor3_button1_button/state", recorded.Messages[1].topic)
	assert.JSONEq(t, `{"event_type":"long"}`, recorded.Messages[1].message)
	assert.False(t, recorded.Messages[1].retain)

	context.Stop(pid)

	time.Sleep(200 * time.Millisecond)

	as.Shutdown()
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "21.50", formatFloat(21.5, 2))
	assert.Equal(t, "3", formatFloat(3.2, 0))
	assert.Equal(t, "on", bool2MQTTPayload(true))
	assert.Equal(t, "off", bool2MQTTPayload(false))
}
