package cache

import (
	"sync"
	"time"

	"github.com/altheadev/mediagate"
)

// DefaultPruneInterval is how often the background sweep runs when the
// caller does not choose an interval.
const DefaultPruneInterval = 5 * time.Minute

// Pruner periodically sweeps every category of a TieredCache, evicting
// expired entries that lazy read-time expiry would never touch because they
// are never read again. Redundant with read-time checks on purpose: the
// sweep bounds memory growth, the read path bounds staleness.
type Pruner struct {
	cache    *TieredCache
	interval time.Duration
	logger   mediagate.Logger

	mu   sync.Mutex
	stop chan struct{}
}

var _ mediagate.Pruner = (*Pruner)(nil)

// NewPruner creates a Pruner sweeping cache every interval. An interval <= 0
// falls back to DefaultPruneInterval; a nil logger falls back to the package
// default.
func NewPruner(cache *TieredCache, interval time.Duration, logger mediagate.Logger) *Pruner {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	if logger == nil {
		logger = mediagate.NewDefaultLogger()
	}
	return &Pruner{
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the repeating sweep. Calling Start on a running Pruner is a
// no-op.
func (p *Pruner) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	go p.loop(p.stop)
}

// Stop halts the sweep loop. It is idempotent.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop == nil {
		return
	}
	close(p.stop)
	p.stop = nil
}

func (p *Pruner) loop(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-stop:
			return
		}
	}
}

func (p *Pruner) sweep() {
	evicted := p.cache.Prune()

	total := 0
	for _, n := range evicted {
		total += n
	}
	if total == 0 {
		return
	}

	args := []any{"total", total}
	for category, n := range evicted {
		args = append(args, category.String(), n)
	}
	p.logger.Debug("pruned expired cache entries", args...)
}
