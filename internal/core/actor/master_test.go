package actor

import (
	"errors"
	"slices"
	"testing"
	"time"

	adactor "github.com/advanliempt/homebridge-hue/internal/adapter/actor"
	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/mqtt"
	"github.com/advanliempt/homebridge-hue/internal/util"
	"github.com/advanliempt/homebridge-hue/internal/util/actorutil"
	"github.com/advanliempt/homebridge-hue/pkg/hue"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startTestMaster(t *testing.T, client *hue.TestBridgeClient) (*actor.ActorSystem, *actor.PID) {
	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, Providers{
			Bridge: func() *adactor.BridgeActor {
				return adactor.NewBridgeActor(client, time.Second, cfg.Bridge.PollRetries, logger)
			},
			MQTT: func(es *eventstream.EventStream) *adactor.MQTTActor {
				return adactor.NewTestMQTTActor(&cfg, es, logger)
			},
		}, logger)
	})
	pid, err := as.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	return as, pid
}

// recorded fetches what the test MQTT actor saw. It is called from
// assert.Eventually conditions, so it must not fail the test itself.
func recorded(as *actor.ActorSystem) adactor.GetRecordedEventsResponse {
	mqttPID := as.NewLocalPID(domain.ACTOR_ID_MASTER + "/" + domain.ACTOR_ID_MQTT)
	res, err := as.Root.RequestFuture(mqttPID, adactor.GetRecordedEvents{}, time.Second).Result()
	if err != nil {
		return adactor.GetRecordedEventsResponse{}
	}
	return res.(adactor.GetRecordedEventsResponse)
}

func TestMasterActor(t *testing.T) {

	client := hue.CreateTestBridgeClient()
	as, pid := startTestMaster(t, client)
	context := as.Root
	defer as.Shutdown()

	assert.Eventually(t, func() bool {
		res, err := context.RequestFuture(pid, domain.GetAccessoriesRequest{}, time.Second).Result()
		return err == nil && len(res.(domain.GetAccessoriesResponse).Accessories) == 2
	}, 5*time.Second, 100*time.Millisecond)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy, "healthy is true: %s", healthResp.State)

	res, err = context.RequestFuture(pid, domain.GetAccessoriesRequest{}, time.Second).Result()
	require.NoError(t, err)
	accessories := res.(domain.GetAccessoriesResponse).Accessories
	require.Len(t, accessories, 2)
	assert.Equal(t, motionAccessory, accessories[0].Id)
	assert.Equal(t, "00_17_88_01_10_3e_5a_e2", accessories[1].Id)

	// discovery is published once accessories exist
	assert.Eventually(t, func() bool {
		rec := recorded(as)
		if len(rec.Discovery) == 0 {
			return false
		}
		last := rec.Discovery[len(rec.Discovery)-1]
		return len(last.Events) > 0 && len(last.Buttons) > 0
	}, 5*time.Second, 100*time.Millisecond)

	rec := recorded(as)
	assert.Contains(t, rec.Topics(), "hue/bridge/state")
	last := rec.Discovery[len(rec.Discovery)-1]
	assert.Equal(t, domain.SENSOR_ID_BRIDGE_STATE, last.Sensors[0].Id)

	// identify through an MQTT command
	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: motionAccessory + "_presence5_identify",
		Command:  mqtt.COMMAND_BUTTON,
		Payload:  mqtt.MQTT_PAYLOAD_PRESS,
	}})
	assert.Eventually(t, func() bool {
		return slices.ContainsFunc(client.Writes(), func(w hue.TestWrite) bool {
			return w.Path == "/sensors/5/config" && w.Body["alert"] == "select"
		})
	}, 2*time.Second, 50*time.Millisecond)

	// a change on the bridge reaches MQTT on the next heartbeat
	client.SetState("5", "lastupdated", "2024-03-01T12:00:00")
	client.SetState("5", "presence", true)
	assert.Eventually(t, func() bool {
		for _, ev := range recorded(as).Events {
			if b, ok := ev.(domain.BinarySensorUpdateEvent); ok && b.Id == motionAccessory+"_presence5_motion" && b.Value {
				return true
			}
		}
		return false
	}, 3*time.Second, 100*time.Millisecond)

	context.Stop(pid)
}

func TestMasterActorBridgeOffline(t *testing.T) {

	client := hue.CreateTestBridgeClient()
	client.FailPolls(errors.New("unreachable"))
	as, pid := startTestMaster(t, client)
	context := as.Root
	defer as.Shutdown()

	assert.Eventually(t, func() bool {
		for _, ev := range recorded(as).Events {
			if b, ok := ev.(domain.BridgeStateUpdateEvent); ok && !b.Value {
				return true
			}
		}
		return false
	}, 5*time.Second, 100*time.Millisecond)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	healthResp := res.(domain.ActorHealthResponse)
	assert.False(t, healthResp.Healthy)
	assert.Contains(t, healthResp.State, domain.ACTOR_ID_POLLER)

	res, err = context.RequestFuture(pid, domain.GetAccessoriesRequest{}, time.Second).Result()
	require.NoError(t, err)
	assert.Empty(t, res.(domain.GetAccessoriesResponse).Accessories)

	// back online
	client.FailPolls(nil)
	assert.Eventually(t, func() bool {
		for _, ev := range recorded(as).Events {
			if b, ok := ev.(domain.BridgeStateUpdateEvent); ok && b.Value {
				return true
			}
		}
		return false
	}, 5*time.Second, 100*time.Millisecond)

	context.Stop(pid)
}
