package service

import (
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/port"
	"github.com/advanliempt/homebridge-hue/internal/core/registry"
	"go.uber.org/zap"
)

type Options struct {
	// battery levels at or below this are reported as low
	LowBattery     int
	ExposeResource bool
	Registry       registry.Options
}

// Deps are the collaborators of an accessory. All calls into an accessory and
// every callback it hands out must happen on a single goroutine.
type Deps struct {
	Presentation port.Presentation
	Bridge       port.BridgeRequester
	Scheduler    port.Scheduler
	History      port.HistorySink
	Clock        func() time.Time
	Logger       *zap.Logger
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock()
}
