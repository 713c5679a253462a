package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	Bridge   BridgeConfig  `mapstructure:"bridge"`
	Sensors  SensorsConfig `mapstructure:"sensors"`
	History  HistoryConfig `mapstructure:"history"`
	MQTT     MQTTConfig    `mapstructure:"mqtt"`
	Port     uint          `mapstructure:"port"`
	HttpLog  bool          `mapstructure:"http_log"`
}

type BridgeConfig struct {
	Host                 string
	Port                 uint
	Username             string
	HeartbeatMillis      uint32 `mapstructure:"heartbeat_millis"`
	RequestTimeoutMillis uint32 `mapstructure:"request_timeout_millis"`
	// deCONZ event stream, 0 disables it
	WebsocketPort     uint   `mapstructure:"websocket_port"`
	BreakerFailures   uint32 `mapstructure:"breaker_failures"`
	BreakerOpenMillis uint32 `mapstructure:"breaker_open_millis"`
	PollRetries       uint   `mapstructure:"poll_retries"`
}

type SensorsConfig struct {
	HueDimmerRepeat bool `mapstructure:"hue_dimmer_repeat"`
	LowBattery      int  `mapstructure:"low_battery"`
	Resource        bool `mapstructure:"resource"`
}

type HistoryConfig struct {
	Enable          bool
	IntervalSeconds uint32 `mapstructure:"interval_seconds"`
	InfluxURL       string `mapstructure:"influx_url"`
	InfluxToken     string `mapstructure:"influx_token"`
	InfluxOrg       string `mapstructure:"influx_org"`
	InfluxBucket    string `mapstructure:"influx_bucket"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks the bounds of the numeric settings.
func (c *Config) Validate() error {
	if c.Bridge.Host == "" {
		return errors.New("config param bridge.host is required")
	}
	if c.Bridge.HeartbeatMillis < 1000 {
		return errors.New("config param bridge.heartbeat_millis should be >= 1000")
	}
	if c.Sensors.LowBattery < 0 || c.Sensors.LowBattery > 100 {
		return errors.New("config param sensors.low_battery should be between 0 and 100")
	}
	if c.History.Enable {
		if c.History.IntervalSeconds < 60 {
			return errors.New("config param history.interval_seconds should be >= 60")
		}
		if c.History.InfluxURL == "" || c.History.InfluxBucket == "" {
			return errors.New("config params history.influx_url and history.influx_bucket are required when history is enabled")
		}
	}
	return nil
}
