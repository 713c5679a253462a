package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amimof/huego"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Sensor is a sensor resource as listed by the bridge.
type Sensor struct {
	Id           string
	Name         string
	Type         string
	Manufacturer string
	Model        string
	UniqueId     string
	SwVersion    string
	State        map[string]any
	Config       map[string]any
}

// BridgeClient talks to a Hue compatible bridge (Philips Hue or deCONZ).
type BridgeClient interface {
	GetSensors(ctx context.Context) ([]Sensor, error)
	// Write sends body to a resource path relative to the api root, like
	// /sensors/5/config.
	Write(ctx context.Context, method, path string, body map[string]any) error
	Close() error
}

type ClientConfig struct {
	Host             string
	Port             uint
	Username         string
	RequestTimeout   time.Duration
	PollRetries      uint
	BreakerFailures  uint32
	BreakerOpenAfter time.Duration
}

type HueBridgeClient struct {
	bridge  *huego.Bridge
	http    *http.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	retries uint
	logger  *zap.Logger
}

var sensorResourcePath = regexp.MustCompile(`^/sensors/(\d+)/(config|state)$`)

func CreateBridgeClient(cfg ClientConfig, logger *zap.Logger) (*HueBridgeClient, error) {
	if cfg.Host == "" {
		return nil, errors.New("bridge host is required")
	}
	if cfg.Username == "" {
		return nil, errors.New("bridge username is required")
	}
	host := cfg.Host
	if cfg.Port > 0 && cfg.Port != 80 {
		host = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	client := &HueBridgeClient{
		bridge:  huego.New(host, cfg.Username),
		http:    &http.Client{Timeout: timeout},
		baseURL: fmt.Sprintf("http://%s/api/%s", host, cfg.Username),
		timeout: timeout,
		retries: cfg.PollRetries,
		logger:  logger.With(zap.String("bridge", host)),
	}
	client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "bridge",
		Timeout: cfg.BreakerOpenAfter,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// the bridge answered, it is not the bridge being down
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || errors.Is(err, ErrNotFound) || errors.As(err, &apiErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			client.logger.Warn("bridge@breaker: state change", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	return client, nil
}

// GetSensors lists every sensor of the bridge. Transport failures are retried
// with exponential backoff.
func (c *HueBridgeClient) GetSensors(ctx context.Context) ([]Sensor, error) {
	var sensors []huego.Sensor
	op := func() error {
		res, err := c.execute(func() (any, error) {
			reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			list, err := c.bridge.GetSensorsContext(reqCtx)
			return list, fromHuegoError(err)
		})
		if err != nil {
			if errors.Is(err, ErrBreakerOpen) || errors.Is(err, ErrNotFound) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			c.logger.Debug("bridge@poll: retrying", zap.Error(err))
			return err
		}
		sensors = res.([]huego.Sensor)
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 0
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.retries)), ctx)); err != nil {
		return nil, errors.Wrap(err, "get sensors")
	}
	res := make([]Sensor, 0, len(sensors))
	for _, s := range sensors {
		res = append(res, fromHuego(s))
	}
	return res, nil
}

// Write is not retried. Like every bridge call it gives up after the request
// timeout.
func (c *HueBridgeClient) Write(ctx context.Context, method, path string, body map[string]any) error {
	method = strings.ToUpper(method)
	m := sensorResourcePath.FindStringSubmatch(path)
	if method == http.MethodPut && m != nil && m[2] == "config" {
		id, _ := strconv.Atoi(m[1])
		_, err := c.execute(func() (any, error) {
			reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			_, err := c.bridge.UpdateSensorConfigContext(reqCtx, id, body)
			return nil, fromHuegoError(err)
		})
		return errors.Wrapf(err, "%s %s", method, path)
	}
	// huego has no setter for sensor state, nor a generic request
	_, err := c.execute(func() (any, error) {
		return nil, c.request(ctx, method, path, body)
	})
	return errors.Wrapf(err, "%s %s", method, path)
}

func (c *HueBridgeClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HueBridgeClient) execute(fn func() (any, error)) (any, error) {
	res, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrBreakerOpen
	}
	return res, err
}

func (c *HueBridgeClient) request(ctx context.Context, method, path string, body map[string]any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	return checkResponse(data)
}

// checkResponse returns the first error of a bridge response list like
// [{"success":{...}},{"error":{...}}].
func checkResponse(data []byte) error {
	var items []struct {
		Success map[string]any `json:"success"`
		Error   *struct {
			Type        int    `json:"type"`
			Address     string `json:"address"`
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "invalid bridge response")
	}
	for _, item := range items {
		if item.Error != nil {
			return newAPIError(item.Error.Type, item.Error.Address, item.Error.Description)
		}
	}
	return nil
}

func fromHuego(s huego.Sensor) Sensor {
	return Sensor{
		Id:           strconv.Itoa(s.ID),
		Name:         s.Name,
		Type:         s.Type,
		Manufacturer: s.ManufacturerName,
		Model:        s.ModelID,
		UniqueId:     s.UniqueID,
		SwVersion:    s.SwVersion,
		State:        s.State,
		Config:       s.Config,
	}
}

var _ BridgeClient = (*HueBridgeClient)(nil)
