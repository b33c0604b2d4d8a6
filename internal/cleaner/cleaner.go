package cleaner

import (
	"context"
	"sync"
	"time"
)

const defaultMinInterval = time.Second

// Sweeper evicts entries strictly older than cutoff and returns how many it
// removed.
type Sweeper interface {
	EvictOlderThan(cutoff time.Time) int
}

// Config controls the sweep period.
type Config struct {
	Interval    time.Duration // fixed period; 0 follows the window
	MinInterval time.Duration // floor; 0 selects one second
}

// Result describes one pass.
type Result struct {
	Started  time.Time
	Cutoff   time.Time
	Window   time.Duration
	Evicted  int
	Skipped  bool
	Duration time.Duration
}

// Cleaner periodically sweeps a Sweeper.
type Cleaner struct {
	target  Sweeper
	window  func() time.Duration
	now     func() time.Time
	cfg     Config
	onSweep func(context.Context, Result)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	kick    chan struct{}
}

// New builds a stopped cleaner. window returns the current failure range;
// onSweep, if non-nil, observes every pass.
func New(target Sweeper, window func() time.Duration, now func() time.Time, cfg Config, onSweep func(context.Context, Result)) *Cleaner {
	if now == nil {
		now = time.Now
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	return &Cleaner{
		target:  target,
		window:  window,
		now:     now,
		cfg:     cfg,
		onSweep: onSweep,
		kick:    make(chan struct{}, 1),
	}
}

// Start launches the sweep goroutine. Calling Start on a running cleaner is a
// no-op.
func (c *Cleaner) Start() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.loop(ctx, c.done)
}

// Stop cancels the goroutine and waits for it to exit. It is idempotent.
func (c *Cleaner) Stop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the sweep goroutine is active.
func (c *Cleaner) Running() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Kick makes a running cleaner recompute its period immediately.
func (c *Cleaner) Kick() {
	if c == nil {
		return
	}
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// NextInterval returns the period that applies to the next pass.
func (c *Cleaner) NextInterval() time.Duration {
	if c == nil {
		return 0
	}
	d := c.cfg.Interval
	if d <= 0 {
		d = c.currentWindow()
	}
	if d < c.cfg.MinInterval {
		d = c.cfg.MinInterval
	}
	return d
}

// RunOnce performs one pass synchronously.
func (c *Cleaner) RunOnce(ctx context.Context) Result {
	if c == nil {
		return Result{Skipped: true}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	started := c.now()
	res := Result{Started: started, Window: c.currentWindow()}

	if res.Window <= 0 || c.target == nil {
		res.Skipped = true
	} else {
		res.Cutoff = started.Add(-res.Window)
		t0 := time.Now()
		res.Evicted = c.target.EvictOlderThan(res.Cutoff)
		res.Duration = time.Since(t0)
	}

	if c.onSweep != nil {
		c.onSweep(ctx, res)
	}
	return res
}

func (c *Cleaner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(c.NextInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.kick:
			resetTimer(timer, c.NextInterval())
		case <-timer.C:
			c.RunOnce(ctx)
			timer.Reset(c.NextInterval())
		}
	}
}

func (c *Cleaner) currentWindow() time.Duration {
	if c.window == nil {
		return 0
	}
	return c.window()
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
