package util

import (
	"github.com/advanliempt/homebridge-hue/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Bridge: config.BridgeConfig{
			Host:                 "-.-.-.-",
			Port:                 80,
			Username:             "0123456789ABCDEF",
			HeartbeatMillis:      1000,
			RequestTimeoutMillis: 1000,
			BreakerFailures:      5,
			BreakerOpenMillis:    30000,
			PollRetries:          1,
		},
		Sensors: config.SensorsConfig{
			LowBattery: 25,
		},
		History: config.HistoryConfig{
			IntervalSeconds: 600,
		},
		MQTT: config.MQTTConfig{
			Host:              "localhost",
			Port:              1883,
			BaseTopic:         "hue",
			HADiscoveryEnable: true,
			HADiscoveryTopic:  "homeassistant",
		},
		Port: 8080,
	}
}
