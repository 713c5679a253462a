package port

import "github.com/advanliempt/homebridge-hue/internal/core/domain"

// SetHandler is called when the outside world asks to change a characteristic.
// done must be called exactly once.
type SetHandler func(value any, done func(error))

// Presentation publishes characteristics to the outside world.
type Presentation interface {
	Expose(spec domain.CharacteristicSpec)
	Update(ref domain.CharacteristicRef, value any)
	OnSet(ref domain.CharacteristicRef, handler SetHandler)
}
