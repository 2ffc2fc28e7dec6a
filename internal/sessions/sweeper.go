package sessions

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultSweepInterval = time.Minute

// Sweeper periodically expires idle conversations.
type Sweeper struct {
	dir      *Directory
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger

	stopChan chan struct{}
	done     chan struct{}
	started  bool
	once     sync.Once
}

func NewSweeper(dir *Directory, ttl time.Duration, logger *zap.Logger) *Sweeper {
	interval := DefaultSweepInterval
	if ttl > 0 && ttl < interval {
		interval = ttl
	}
	return &Sweeper{
		dir:      dir,
		ttl:      ttl,
		interval: interval,
		logger:   logger.With(zap.String("component", "sessions.sweeper")),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. A non-positive ttl disables expiry.
func (w *Sweeper) Start() {
	if w == nil || w.started {
		return
	}
	w.started = true
	if w.ttl <= 0 {
		close(w.done)
		return
	}
	go w.loop()
}

// Stop ends the loop and waits for it to exit.
func (w *Sweeper) Stop() {
	if w == nil || !w.started {
		return
	}
	w.once.Do(func() { close(w.stopChan) })
	<-w.done
}

func (w *Sweeper) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Sweeper) tick() {
	before := w.dir.Len()
	abandoned := w.dir.Expire(w.ttl)
	if removed := before - w.dir.Len(); removed > 0 {
		w.logger.Debug("expired idle sessions",
			zap.Int("removed", removed),
			zap.Int("abandoned_flows", abandoned),
		)
	}
}
