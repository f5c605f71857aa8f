package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Timer - отменяемый отложенный вызов
type Timer interface {
	// Stop отменяет вызов. false - вызов уже состоялся или был отменён.
	Stop() bool
}

// Scheduler - источник таймеров для контроллеров карты
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

// Real - планировщик на time.AfterFunc
func Real() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manual - планировщик с ручным временем для тестов.
// Вызовы выполняются синхронно внутри Advance.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	m       *Manual
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{m: m, at: m.now + d, seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance сдвигает время и выполняет все наступившие вызовы по порядку
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		next.fired = true
		m.mu.Unlock()

		next.f()
	}
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	pending := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			pending = append(pending, t)
		}
	}
	m.timers = pending

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].at == pending[j].at {
			return pending[i].seq < pending[j].seq
		}
		return pending[i].at < pending[j].at
	})

	if len(pending) == 0 || pending[0].at > target {
		return nil
	}
	return pending[0]
}

// Pending - число взведённых таймеров
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
