package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type memoryWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushed int
}

func (w *memoryWriter) WritePoint(point *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, point)
}

func (w *memoryWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushed++
}

func (w *memoryWriter) count() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.points), w.flushed
}

func TestHistoryActor(t *testing.T) {

	writer := &memoryWriter{}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewHistoryActor(writer, logger) })
	pid := context.Spawn(props)

	context.Send(pid, domain.RecordHistoryRequest{Entry: domain.HistoryEntry{
		Accessory: "sensor12",
		Category:  domain.HISTORY_DOOR,
		Time:      time.Now(),
		Fields:    map[string]float64{"status": 1},
	}})

	assert.Eventually(t, func() bool {
		n, _ := writer.count()
		return n == 1
	}, time.Second, 10*time.Millisecond)

	context.StopFuture(pid).Wait()

	_, flushed := writer.count()
	assert.Equal(t, 1, flushed)

	as.Shutdown()
}
