package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	adactor "github.com/advanliempt/homebridge-hue/internal/adapter/actor"
	"github.com/advanliempt/homebridge-hue/internal/adapter/history"
	"github.com/advanliempt/homebridge-hue/internal/config"
	"github.com/advanliempt/homebridge-hue/internal/core/actor"
	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/server"
	"github.com/advanliempt/homebridge-hue/internal/util/actorutil"
	"github.com/advanliempt/homebridge-hue/pkg/hue"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	providers, closeProviders, err := actorProviders(cfg, logger)
	if err != nil {
		logger.Error("main: cannot create bridge clients", zap.Error(err))
		os.Exit(1)
	}
	defer closeProviders()

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, providers, logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		logger.Error("main: cannot start master actor", zap.Error(err))
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	done := make(chan bool, 1)

	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Println("Graceful shutdown complete.")

	if err := ctx.StopFuture(pid).Wait(); err != nil {
		logger.Warn("main: master did not stop cleanly", zap.Error(err))
	}
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => HUE_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("HUE_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("hue")
	// bridge.host => HUE_BRIDGE_HOST
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace", "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// actorProviders creates the clients shared by every incarnation of the IO
// actors. The returned func releases them.
func actorProviders(cfg *config.Config, logger *zap.Logger) (actor.Providers, func(), error) {
	requestTimeout := time.Duration(cfg.Bridge.RequestTimeoutMillis) * time.Millisecond

	client, err := hue.CreateBridgeClient(hue.ClientConfig{
		Host:             cfg.Bridge.Host,
		Port:             cfg.Bridge.Port,
		Username:         cfg.Bridge.Username,
		RequestTimeout:   requestTimeout,
		PollRetries:      cfg.Bridge.PollRetries,
		BreakerFailures:  cfg.Bridge.BreakerFailures,
		BreakerOpenAfter: time.Duration(cfg.Bridge.BreakerOpenMillis) * time.Millisecond,
	}, logger)
	if err != nil {
		return actor.Providers{}, nil, err
	}

	providers := actor.Providers{
		Bridge: func() *adactor.BridgeActor {
			return adactor.NewBridgeActor(client, requestTimeout, cfg.Bridge.PollRetries, logger)
		},
		MQTT: func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewMQTTActor(cfg, es, logger)
		},
	}

	if cfg.Bridge.WebsocketPort > 0 {
		listener := hue.NewEventListener(cfg.Bridge.Host, cfg.Bridge.WebsocketPort, logger)
		providers.BridgeEvents = func() *adactor.BridgeEventsActor {
			return adactor.NewBridgeEventsActor(listener, logger)
		}
	}

	closeFn := func() {}
	if cfg.History.Enable {
		writer, err := history.Connect(cfg.History, logger)
		if err != nil {
			// history is optional, the accessories work without it
			logger.Error("main: history disabled", zap.Error(err))
		} else {
			providers.History = func() *adactor.HistoryActor {
				return adactor.NewHistoryActor(writer, logger)
			}
			closeFn = writer.Close
		}
	}

	return providers, closeFn, nil
}

func setConfigDefaults() {
	// keys without a default are invisible to Unmarshal when only set in env
	for _, key := range []string{"bridge.host", "bridge.username", "mqtt.host", "mqtt.username", "mqtt.password",
		"history.influx_url", "history.influx_token", "history.influx_org", "history.influx_bucket"} {
		viper.SetDefault(key, "")
	}
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("http_log", false)
	viper.SetDefault("bridge.port", 80)
	viper.SetDefault("bridge.heartbeat_millis", 5000)
	viper.SetDefault("bridge.request_timeout_millis", 5000)
	viper.SetDefault("bridge.websocket_port", 0)
	viper.SetDefault("bridge.breaker_failures", 5)
	viper.SetDefault("bridge.breaker_open_millis", 30000)
	viper.SetDefault("bridge.poll_retries", 2)
	viper.SetDefault("sensors.hue_dimmer_repeat", false)
	viper.SetDefault("sensors.low_battery", 25)
	viper.SetDefault("sensors.resource", false)
	viper.SetDefault("history.enable", false)
	viper.SetDefault("history.interval_seconds", 600)
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "hue")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.Bridge.Username = "*redacted*"
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.History.InfluxToken = "*redacted*"
	slog.Info("Using", "config", cfg)
}
