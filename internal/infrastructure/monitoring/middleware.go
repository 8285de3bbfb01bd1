package monitoring

import (
	"time"

	"github.com/AdelNorberg/ecsy/internal/domain/ecs"
)

// WorldSampler periodically snapshots an ecs.World's occupancy into a
// MetricsCollector. It owns no lifecycle of its own beyond the ticker:
// the host application still drives World.Execute directly.
type WorldSampler struct {
	collector *MetricsCollector
	world     *ecs.World
	ticker    *time.Ticker
	stopChan  chan struct{}
}

// NewWorldSampler builds a sampler for world, reporting through
// collector.
func NewWorldSampler(collector *MetricsCollector, world *ecs.World) *WorldSampler {
	return &WorldSampler{
		collector: collector,
		world:     world,
		stopChan:  make(chan struct{}),
	}
}

// Start begins sampling world.Stats() at interval until Stop is called.
func (s *WorldSampler) Start(interval time.Duration) {
	s.ticker = time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.sample()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop halts sampling.
func (s *WorldSampler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopChan)
}

func (s *WorldSampler) sample() {
	stats := s.world.Stats()

	s.collector.UpdateEntityMetrics(stats.Entities, stats.Ghosts)
	s.collector.UpdateDeferredQueueDepth(stats.DeferredQueue)

	for component, count := range stats.ComponentCounts {
		s.collector.UpdateComponentCount(component, count)
	}
	for component, pool := range stats.Pools {
		hitRate := 0.0
		if pool.Total > 0 {
			hitRate = float64(pool.Used) / float64(pool.Total)
		}
		s.collector.UpdatePoolMetrics(component, hitRate, pool.Total)
	}
	for key, q := range stats.Queries {
		s.collector.UpdateQuerySize(string(key), q.NumEntities)
	}
	for _, sys := range stats.Systems {
		s.collector.RecordSystemExecute(sys.Name, sys.ExecuteTime)
	}
}
