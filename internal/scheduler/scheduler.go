package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"bidding-management-api/internal/service"
)

// Scheduler drives the settlement sweeps on fixed intervals. Both loops stop
// when Stop is called; in-flight sweeps finish first.
type Scheduler struct {
	settlement service.Settlement

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func New(settlement service.Settlement) *Scheduler {
	return &Scheduler{
		settlement: settlement,
		stop:       make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	cfg := s.settlement.Config()
	if !cfg.AutoAssignmentEnabled {
		log.Print("scheduler: automatic assignment disabled, sweeps not started")
		return
	}

	s.wg.Add(2)
	go s.loop("assignment", cfg.AssignmentInterval, s.settlement.RunAssignmentSweep)
	go s.loop("cancellation", cfg.CancellationInterval, s.settlement.RunCancellationSweep)

	log.Printf("scheduler: assignment sweep every %s, cancellation sweep every %s",
		cfg.AssignmentInterval, cfg.CancellationInterval)
}

func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *Scheduler) loop(name string, interval time.Duration, sweep func(context.Context) (int, error)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			n, err := sweep(context.Background())
			if err != nil {
				log.Printf("scheduler: %s sweep failed: %v", name, err)
				continue
			}
			if n > 0 {
				log.Printf("scheduler: %s sweep processed %d tasks", name, n)
			}
		}
	}
}
