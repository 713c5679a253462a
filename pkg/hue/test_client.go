package hue

import (
	"context"
	"maps"
	"sync"
)

type TestWrite struct {
	Method string
	Path   string
	Body   map[string]any
}

// TestBridgeClient serves a fixed set of sensors and records writes.
type TestBridgeClient struct {
	mu       sync.Mutex
	sensors  []Sensor
	writes   []TestWrite
	pollErr  error
	writeErr error
}

func CreateTestBridgeClient() *TestBridgeClient {
	return &TestBridgeClient{sensors: SampleSensors()}
}

func SampleSensors() []Sensor {
	return []Sensor{
		{
			Id:           "5",
			Name:         "Hallway motion",
			Type:         "ZLLPresence",
			Manufacturer: "Philips",
			Model:        "SML001",
			UniqueId:     "00:17:88:01:02:00:af:1c-02-0406",
			SwVersion:    "6.1.1.27575",
			State:        map[string]any{"presence": false, "lastupdated": "2024-03-01T11:58:12"},
			Config:       map[string]any{"on": true, "reachable": true, "battery": 90.0, "sensitivity": 2.0, "sensitivitymax": 2.0, "alert": "none"},
		},
		{
			Id:           "6",
			Name:         "Hallway light level",
			Type:         "ZLLLightLevel",
			Manufacturer: "Philips",
			Model:        "SML001",
			UniqueId:     "00:17:88:01:02:00:af:1c-02-0400",
			SwVersion:    "6.1.1.27575",
			State:        map[string]any{"lightlevel": 14000.0, "dark": true, "daylight": false, "lastupdated": "2024-03-01T11:58:12"},
			Config:       map[string]any{"on": true, "reachable": true, "battery": 90.0},
		},
		{
			Id:           "7",
			Name:         "Hallway temperature",
			Type:         "ZLLTemperature",
			Manufacturer: "Philips",
			Model:        "SML001",
			UniqueId:     "00:17:88:01:02:00:af:1c-02-0402",
			SwVersion:    "6.1.1.27575",
			State:        map[string]any{"temperature": 2150.0, "lastupdated": "2024-03-01T11:58:12"},
			Config:       map[string]any{"on": true, "reachable": true, "battery": 90.0, "offset": 0.0},
		},
		{
			Id:           "3",
			Name:         "Living dimmer",
			Type:         "ZLLSwitch",
			Manufacturer: "Philips",
			Model:        "RWL021",
			UniqueId:     "00:17:88:01:10:3e:5a:e2-02-fc00",
			SwVersion:    "6.1.1.28573",
			State:        map[string]any{"buttonevent": 1002.0, "lastupdated": "2024-03-01T10:00:00"},
			Config:       map[string]any{"on": true, "reachable": true, "battery": 100.0},
		},
	}
}

func (c *TestBridgeClient) GetSensors(_ context.Context) ([]Sensor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pollErr != nil {
		return nil, c.pollErr
	}
	res := make([]Sensor, 0, len(c.sensors))
	for _, s := range c.sensors {
		s.State = maps.Clone(s.State)
		s.Config = maps.Clone(s.Config)
		res = append(res, s)
	}
	return res, nil
}

func (c *TestBridgeClient) Write(_ context.Context, method, path string, body map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, TestWrite{Method: method, Path: path, Body: maps.Clone(body)})
	return c.writeErr
}

func (c *TestBridgeClient) Close() error {
	return nil
}

// SetState changes the state of a sensor as seen by the next poll.
func (c *TestBridgeClient) SetState(id, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.sensors {
		if c.sensors[i].Id == id {
			c.sensors[i].State[key] = value
		}
	}
}

func (c *TestBridgeClient) FailPolls(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollErr = err
}

func (c *TestBridgeClient) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *TestBridgeClient) Writes() []TestWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]TestWrite, len(c.writes))
	copy(res, c.writes)
	return res
}

var _ BridgeClient = (*TestBridgeClient)(nil)
