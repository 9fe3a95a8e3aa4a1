// Package scheduler runs the clock-driven state machine that selects the
// current display segment and issues show/clear commands to a Dispatcher,
// mirroring each dispatch into an AuditLog before returning control to the
// tick loop.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/wst-titler/op47/internal/metrics"
	"github.com/wst-titler/op47/internal/segmenter"
	"github.com/wst-titler/op47/internal/timesource"
)

const (
	tickInterval = 100 * time.Millisecond
	hangWindow   = 2 * time.Second
)

// Dispatcher issues show/clear commands downstream.
type Dispatcher interface {
	Show(lines []string) error
	Clear() error
}

// AuditLog records every dispatched show/clear, best-effort.
type AuditLog interface {
	Record(kind string, lines []string, segStart, segEnd float64)
}

// noopAuditLog discards every record; used when no log is configured.
type noopAuditLog struct{}

func (noopAuditLog) Record(string, []string, float64, float64) {}

// Scheduler owns one titling session's segment sequence and drives it from a
// timesource.Source, which may be an autonomous clock or an external reading
// feed.
type Scheduler struct {
	mu sync.Mutex

	dispatcher Dispatcher
	audit      AuditLog
	clock      timesource.Source

	segments       []segmenter.Segment
	lastShownIndex int

	cancel  context.CancelFunc
	running bool
}

// New builds a Scheduler against dispatcher. audit may be nil, in which case
// dispatch records are discarded.
func New(dispatcher Dispatcher, audit AuditLog) *Scheduler {
	if audit == nil {
		audit = noopAuditLog{}
	}
	return &Scheduler{
		dispatcher:     dispatcher,
		audit:          audit,
		lastShownIndex: -1,
	}
}

// Load replaces the segment sequence, resets lastShownIndex to none, switches
// the clock source to clock, and (re)starts the tick loop if it is not
// already running.
func (s *Scheduler) Load(ctx context.Context, segments []segmenter.Segment, clock timesource.Source) {
	s.mu.Lock()
	s.segments = segments
	s.lastShownIndex = -1
	s.clock = clock
	alreadyRunning := s.running
	s.mu.Unlock()

	if !alreadyRunning {
		s.start(ctx)
	}
}

// Stop stops the tick loop, clears the title, and resets lastShownIndex.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.running = false
	s.lastShownIndex = -1
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := s.dispatcher.Clear(); err != nil {
		log.Printf("scheduler: clear on stop: %v", err)
	}
	s.audit.Record("clear", nil, 0, 0)
}

func (s *Scheduler) start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	go s.tickLoop(ctx)
}

func (s *Scheduler) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs one iteration of the scheduler algorithm.
func (s *Scheduler) tick() {
	start := time.Now()
	defer func() { metrics.SchedulerTickDuration.Observe(time.Since(start).Seconds()) }()
	s.mu.Lock()
	if s.clock == nil {
		s.mu.Unlock()
		return
	}
	t, ok := s.clock.GetTime()
	if !ok {
		s.mu.Unlock()
		return
	}

	if len(s.segments) == 0 {
		if s.lastShownIndex >= 0 {
			s.lastShownIndex = -1
			s.mu.Unlock()
			s.doClear()
		} else {
			s.mu.Unlock()
		}
		return
	}

	cur := -1
	nextStart := -1.0
	haveNext := false
	for i, seg := range s.segments {
		if t >= seg.StartS && t < seg.EndS {
			cur = i
			break
		}
		if seg.StartS > t && (!haveNext || seg.StartS < nextStart) {
			nextStart = seg.StartS
			haveNext = true
		}
	}

	switch {
	case cur >= 0 && cur != s.lastShownIndex:
		seg := s.segments[cur]
		s.lastShownIndex = cur
		s.mu.Unlock()
		s.doShow(seg)
	case cur < 0:
		gapToNext := -1.0
		if haveNext {
			gapToNext = nextStart - t
		}
		if s.lastShownIndex >= 0 && (!haveNext || gapToNext > hangWindow.Seconds()) {
			s.lastShownIndex = -1
			s.mu.Unlock()
			s.doClear()
		} else {
			s.mu.Unlock()
		}
	default:
		s.mu.Unlock()
	}
}

func (s *Scheduler) doShow(seg segmenter.Segment) {
	if err := s.dispatcher.Show(seg.Lines); err != nil {
		log.Printf("scheduler: show: %v", err)
	}
	s.audit.Record("show", seg.Lines, seg.StartS, seg.EndS)
}

func (s *Scheduler) doClear() {
	if err := s.dispatcher.Clear(); err != nil {
		log.Printf("scheduler: clear: %v", err)
	}
	s.audit.Record("clear", nil, 0, 0)
}

// Status reports whether a session is loaded, the segment count, and the
// index last shown (-1 for none), for the HTTP control surface and debugfs.
func (s *Scheduler) Status() (loaded bool, segmentCount int, lastShownIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, len(s.segments), s.lastShownIndex
}

// CurrentLines returns the lines of the segment currently on air, or nil if
// nothing is showing.
func (s *Scheduler) CurrentLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastShownIndex < 0 || s.lastShownIndex >= len(s.segments) {
		return nil
	}
	return s.segments[s.lastShownIndex].Lines
}
