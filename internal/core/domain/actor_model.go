package domain

const (
	ACTOR_ID_MASTER          = "master"
	ACTOR_ID_BRIDGE          = "bridge"
	ACTOR_ID_POLLER          = "poller"
	ACTOR_ID_MQTT            = "mqtt"
	ACTOR_ID_HA_DISCOVERY    = "hadiscovery"
	ACTOR_ID_ACCESSORY       = "accessory"
	ACTOR_ID_HISTORY         = "history"
	ACTOR_ID_BRIDGE_EVENTS   = "bridge_events"
	ACTOR_ID_ACCESSORY_GROUP = "accessories"
)

// bridge

type GetSensorsRequest struct {
	ActorRequestMixIn
}

type GetSensorsResponse struct {
	ActorResponseMixIn
	Sensors []SensorObject
}

type BridgeWriteRequest struct {
	ActorRequestMixIn
	Method string
	Path   string
	Body   map[string]any
}

type BridgeWriteResponse struct {
	ActorResponseMixIn
}

// BridgeEvent is a change pushed by the bridge for a single sensor. Only the
// mutated keys are present.
type BridgeEvent struct {
	Id     string
	State  map[string]any
	Config map[string]any
}

// accessories

type SensorHeartbeatRequest struct {
	ActorRequestMixIn
	Beat    int
	Sensors []SensorObject
}

type SensorEventRequest struct {
	ActorRequestMixIn
	Event BridgeEvent
}

type SetCharacteristicRequest struct {
	ActorRequestMixIn
	EntityId string
	Value    any
}

type SetCharacteristicResponse struct {
	ActorResponseMixIn
}

type HistoryTickRequest struct {
	ActorRequestMixIn
}

type AccessoryInfo struct {
	Id              string
	Name            string
	Manufacturer    string
	Model           string
	Version         string
	Sensors         []AccessorySensorInfo
	Characteristics []CharacteristicSpec
}

type AccessorySensorInfo struct {
	Id     string
	Name   string
	Type   string
	Family string
	Known  bool
	Mirror map[string]any
}

// AccessoriesAddedEvent tells that accessories were created for sensors seen
// for the first time.
type AccessoriesAddedEvent struct {
	Ids []string
}

type GetAccessoriesRequest struct {
	ActorRequestMixIn
}

type GetAccessoriesResponse struct {
	ActorResponseMixIn
	Accessories []AccessoryInfo
}

type GetAccessoryInfoRequest struct {
	ActorRequestMixIn
}

type GetAccessoryInfoResponse struct {
	ActorResponseMixIn
	Accessory AccessoryInfo
}

// mqtt

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
	Buttons      []GenericButton
	Events       []GenericEvent
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// history

type RecordHistoryRequest struct {
	ActorRequestMixIn
	Entry HistoryEntry
}

// health

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
