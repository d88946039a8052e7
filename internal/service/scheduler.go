package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
	"github.com/tbrumbaugh5396/music-visualizer/internal/ports"
)

// Scheduler drives a VisualizerService at its refresh interval and hands every
// frame to a surface. Each tick runs on its own goroutine so a slow tick makes
// the next one skip instead of delaying the clock.
type Scheduler struct {
	// Dependencies (injected)
	logger  *slog.Logger
	viz     *VisualizerService
	surface ports.Surface
	bus     ports.EventBus

	// Concurrency control
	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	reset    chan time.Duration
	loopWg   sync.WaitGroup // the ticker loop
	tickWg   sync.WaitGroup // in-flight ticks
	subID    domain.SubscriptionID
	hasSubID bool
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(
	logger *slog.Logger,
	viz *VisualizerService,
	surface ports.Surface,
	bus ports.EventBus,
) *Scheduler {
	return &Scheduler{
		logger:  logger.With(slog.String("component", "scheduler")),
		viz:     viz,
		surface: surface,
		bus:     bus,
		reset:   make(chan time.Duration, 1),
	}
}

// Start begins ticking. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})

	if s.bus != nil {
		s.subID = s.bus.Subscribe(domain.EventRefreshChanged, s.onRefreshChanged)
		s.hasSubID = true
	}

	interval := s.viz.RefreshInterval()
	s.loopWg.Add(1)
	go s.loop(interval, s.stop)

	s.logger.Debug("scheduler started", slog.Duration("interval", interval))
}

// Stop halts ticking and waits for in-flight ticks to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	if s.hasSubID {
		s.bus.Unsubscribe(s.subID)
		s.hasSubID = false
	}
	s.mu.Unlock()

	s.loopWg.Wait()
	s.tickWg.Wait()

	s.logger.Debug("scheduler stopped")
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

// Running reports whether the scheduler is ticking.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(interval time.Duration, stop <-chan struct{}) {
	defer s.loopWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return

		case d := <-s.reset:
			ticker.Reset(d)
			s.logger.Debug("tick interval changed", slog.Duration("interval", d))

		case <-ticker.C:
			s.tickWg.Add(1)
			go s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	defer s.tickWg.Done()

	frame, err := s.viz.Tick()
	if err != nil {
		if !errors.Is(err, domain.ErrTickSkipped) {
			s.logger.Warn("tick failed", slog.Any("error", err))
		}
		return
	}
	s.surface.Present(frame)
}

// onRefreshChanged forwards the newest interval to the loop, replacing any
// value it has not picked up yet.
func (s *Scheduler) onRefreshChanged(event domain.Event) {
	e, ok := event.(domain.RefreshChangedEvent)
	if !ok {
		return
	}
	for {
		select {
		case s.reset <- e.Interval:
			return
		default:
		}
		select {
		case <-s.reset:
		default:
		}
	}
}
