package port

import "github.com/advanliempt/homebridge-hue/internal/core/domain"

type HistorySink interface {
	Record(entry domain.HistoryEntry)
}
