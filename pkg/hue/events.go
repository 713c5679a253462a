package hue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SensorEvent is a change notification pushed by a deCONZ gateway. Only the
// keys that changed are present in State and Config.
type SensorEvent struct {
	Id     string
	State  map[string]any
	Config map[string]any
}

type wsMessage struct {
	Type     string         `json:"t"`
	Event    string         `json:"e"`
	Resource string         `json:"r"`
	Id       string         `json:"id"`
	UniqueId string         `json:"uniqueid"`
	State    map[string]any `json:"state"`
	Config   map[string]any `json:"config"`
}

// EventListener follows the websocket event stream of the bridge and
// reconnects when the connection drops.
type EventListener struct {
	url     string
	dialer  *websocket.Dialer
	backoff func() backoff.BackOff
	logger  *zap.Logger
}

func NewEventListener(host string, port uint, logger *zap.Logger) *EventListener {
	return NewEventListenerWithURL(fmt.Sprintf("ws://%s:%d", host, port), logger)
}

func NewEventListenerWithURL(url string, logger *zap.Logger) *EventListener {
	return &EventListener{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		backoff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 1 * time.Second
			bo.MaxInterval = 60 * time.Second
			bo.MaxElapsedTime = 0
			return bo
		},
		logger: logger.With(zap.String("events", url)),
	}
}

// Listen blocks until ctx is done, calling onEvent for every sensor change.
func (l *EventListener) Listen(ctx context.Context, onEvent func(SensorEvent)) error {
	bo := backoff.WithContext(l.backoff(), ctx)
	for {
		connected, err := l.listenOnce(ctx, onEvent)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			bo.Reset()
		}
		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return errors.Wrap(err, "event stream closed")
		}
		l.logger.Warn("events@listen: disconnected", zap.Error(err), zap.Duration("retry", wait))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (l *EventListener) listenOnce(ctx context.Context, onEvent func(SensorEvent)) (bool, error) {
	conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return false, errors.Wrap(err, "dial")
	}
	defer conn.Close()
	l.logger.Info("events@listen: connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		ev, ok, err := parseEvent(data)
		if err != nil {
			l.logger.Debug("events@listen: ignoring message", zap.Error(err))
			continue
		}
		if ok {
			onEvent(ev)
		}
	}
}

// parseEvent returns false for anything but a sensor change.
func parseEvent(data []byte) (SensorEvent, bool, error) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SensorEvent{}, false, err
	}
	if msg.Type != "event" || msg.Event != "changed" || msg.Resource != "sensors" || msg.Id == "" {
		return SensorEvent{}, false, nil
	}
	if msg.State == nil && msg.Config == nil {
		return SensorEvent{}, false, nil
	}
	return SensorEvent{Id: msg.Id, State: msg.State, Config: msg.Config}, true, nil
}
