package service

import (
	"sort"
	"testing"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"
	"github.com/advanliempt/homebridge-hue/internal/core/port"
	"github.com/advanliempt/homebridge-hue/internal/core/port/mocks"
	"go.uber.org/zap"
)

type recordedUpdate struct {
	Ref   domain.CharacteristicRef
	Value any
}

type recordingPresentation struct {
	specs    map[domain.CharacteristicRef]domain.CharacteristicSpec
	values   map[domain.CharacteristicRef]any
	handlers map[domain.CharacteristicRef]port.SetHandler
	updates  []recordedUpdate
}

func newRecordingPresentation() *recordingPresentation {
	return &recordingPresentation{
		specs:    map[domain.CharacteristicRef]domain.CharacteristicSpec{},
		values:   map[domain.CharacteristicRef]any{},
		handlers: map[domain.CharacteristicRef]port.SetHandler{},
	}
}

func (p *recordingPresentation) Expose(spec domain.CharacteristicSpec) {
	p.specs[spec.Ref] = spec
}

func (p *recordingPresentation) Update(ref domain.CharacteristicRef, value any) {
	p.values[ref] = value
	p.updates = append(p.updates, recordedUpdate{Ref: ref, Value: value})
}

func (p *recordingPresentation) OnSet(ref domain.CharacteristicRef, handler port.SetHandler) {
	p.handlers[ref] = handler
}

// set calls the registered handler and returns what it completed with.
func (p *recordingPresentation) set(ref domain.CharacteristicRef, value any) error {
	handler, ok := p.handlers[ref]
	if !ok {
		return ErrUnknownEntity
	}
	var res error
	called := false
	handler(value, func(err error) {
		called = true
		res = err
	})
	if !called {
		panic("set handler did not complete")
	}
	return res
}

func (p *recordingPresentation) updatesOf(ref domain.CharacteristicRef) []any {
	var res []any
	for _, u := range p.updates {
		if u.Ref == ref {
			res = append(res, u.Value)
		}
	}
	return res
}

type manualTimer struct {
	at        time.Time
	fn        func()
	cancelled bool
}

// manualScheduler is a fake clock and scheduler. Timers fire and deferred
// functions run only when the test advances it.
type manualScheduler struct {
	now      time.Time
	timers   []*manualTimer
	deferred []func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *manualScheduler) Now() time.Time {
	return s.now
}

func (s *manualScheduler) After(d time.Duration, fn func()) func() {
	t := &manualTimer{at: s.now.Add(d), fn: fn}
	s.timers = append(s.timers, t)
	return func() { t.cancelled = true }
}

func (s *manualScheduler) Defer(fn func()) {
	s.deferred = append(s.deferred, fn)
}

func (s *manualScheduler) pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (s *manualScheduler) flush() {
	for len(s.deferred) > 0 {
		fn := s.deferred[0]
		s.deferred = s.deferred[1:]
		fn()
	}
}

func (s *manualScheduler) advance(d time.Duration) {
	s.now = s.now.Add(d)
	sort.SliceStable(s.timers, func(i, j int) bool { return s.timers[i].at.Before(s.timers[j].at) })
	var keep []*manualTimer
	var due []*manualTimer
	for _, t := range s.timers {
		switch {
		case t.cancelled:
		case !t.at.After(s.now):
			due = append(due, t)
		default:
			keep = append(keep, t)
		}
	}
	s.timers = keep
	for _, t := range due {
		if !t.cancelled {
			t.fn()
		}
	}
	s.flush()
}

type historyRecorder struct {
	entries []domain.HistoryEntry
}

func (h *historyRecorder) Record(entry domain.HistoryEntry) {
	h.entries = append(h.entries, entry.Clone())
}

type harness struct {
	pres    *recordingPresentation
	sched   *manualScheduler
	bridge  *mocks.BridgeRequesterMock
	history *historyRecorder
	logger  *zap.Logger
}

func newHarness(t *testing.T) *harness {
	return &harness{
		pres:    newRecordingPresentation(),
		sched:   newManualScheduler(),
		bridge:  &mocks.BridgeRequesterMock{},
		history: &historyRecorder{},
		logger:  zap.Must(zap.NewDevelopment()),
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Presentation: h.pres,
		Bridge:       h.bridge,
		Scheduler:    h.sched,
		History:      h.history,
		Clock:        h.sched.Now,
		Logger:       h.logger,
	}
}

func (h *harness) accessory(opts Options, objs ...domain.SensorObject) *Accessory {
	groups := GroupSensors(objs)
	if len(groups) != 1 {
		panic("sensors do not form one accessory")
	}
	a := NewAccessory(groups[0].Id, groups[0].Sensors, opts, h.deps())
	h.sched.flush()
	return a
}

func (h *harness) value(s *Sensor, c domain.CharacteristicType) any {
	return h.pres.values[s.ref(c)]
}

func defaultOptions() Options {
	return Options{LowBattery: 25}
}
