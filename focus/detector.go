package focus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval      = 3 * time.Second
	DefaultIdleThreshold = 60 * time.Second
)

type Config struct {
	// MonitoredApp is always implicitly allow-listed.
	MonitoredApp  string
	AllowedApps   []string
	Strict        bool
	Interval      time.Duration
	IdleThreshold time.Duration
	// QueryTimeout bounds one foreground query; a query must not stall past
	// the next tick.
	QueryTimeout time.Duration
}

func (c *Config) fillDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = DefaultIdleThreshold
	}
	if c.QueryTimeout <= 0 || c.QueryTimeout > c.Interval {
		c.QueryTimeout = c.Interval
	}
}

// Snapshot is the detector's counters at one instant.
type Snapshot struct {
	FocusSeconds   int
	StreakSeconds  int
	Violations     int
	ElapsedSeconds int
	Distracted     bool
}

func (s Snapshot) Score() float64 {
	return FocusScore(s.FocusSeconds, s.ElapsedSeconds)
}

// Detector samples the foreground application on a fixed interval and
// classifies each sample as in-session or a violation. It has no cross-client
// state; one detector runs per participating client.
type Detector struct {
	cfg     Config
	querier Querier
	tickers PeriodicTickerChannelCreator
	now     func() time.Time

	violations chan domain.Violation

	mu            sync.Mutex
	running       bool
	cancel        context.CancelFunc
	stopped       chan struct{}
	startedAt     time.Time
	lastTick      time.Time
	lastGoodCheck time.Time
	focusTime     time.Duration
	streak        time.Duration
	violationsCnt int
	distracted    bool
}

func NewDetector(cfg Config, querier Querier, tickers PeriodicTickerChannelCreator) *Detector {
	cfg.fillDefaults()
	return &Detector{
		cfg:        cfg,
		querier:    querier,
		tickers:    tickers,
		now:        time.Now,
		violations: make(chan domain.Violation, 32),
	}
}

// Violations is the stream of detected focus-loss events. The channel is
// never closed while the detector may be restarted.
func (d *Detector) Violations() <-chan domain.Violation {
	return d.violations
}

// Start launches the polling loop. Starting a running detector is a no-op.
func (d *Detector) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		log.Warn().Str("module", "focus").Msg("detector already running, start ignored")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.running = true
	d.cancel = cancel
	d.stopped = make(chan struct{})
	now := d.now()
	d.startedAt = now
	d.lastTick = now
	d.lastGoodCheck = now
	d.focusTime = 0
	d.streak = 0
	d.violationsCnt = 0
	d.distracted = false

	ticks := d.tickers.Create(d.cfg.Interval)
	go d.loop(ctx, ticks, d.stopped)
	log.Info().Str("module", "focus").Str("app", d.cfg.MonitoredApp).Dur("interval", d.cfg.Interval).Msg("focus detector started")
}

// Stop halts the loop and waits for it to exit. Stopping a stopped detector
// is a no-op. A stopped loop never resurrects itself.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.cancel
	stopped := d.stopped
	d.mu.Unlock()

	cancel()
	<-stopped
	log.Info().Str("module", "focus").Msg("focus detector stopped")
}

func (d *Detector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Detector) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	elapsed := d.lastTick.Sub(d.startedAt)
	return Snapshot{
		FocusSeconds:   int(d.focusTime.Seconds()),
		StreakSeconds:  int(d.streak.Seconds()),
		Violations:     d.violationsCnt,
		ElapsedSeconds: int(elapsed.Seconds()),
		Distracted:     d.distracted,
	}
}

func (d *Detector) loop(ctx context.Context, ticks <-chan time.Time, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticks:
			d.tick(ctx, now)
		}
	}
}

func (d *Detector) tick(ctx context.Context, now time.Time) {
	queryCtx, cancel := context.WithTimeout(ctx, d.cfg.QueryTimeout)
	app, err := d.querier.CurrentForegroundApp(queryCtx)
	cancel()

	d.mu.Lock()
	delta := now.Sub(d.lastTick)
	if delta < 0 {
		delta = 0
	}
	d.lastTick = now

	var fired []domain.Violation

	if err != nil {
		// No signal this tick: cannot classify, skip evaluation and retry
		// next tick.
		if errors.Is(err, domain.ErrPermissionUnavailable) {
			log.Warn().Str("module", "focus").Msg("foreground query permission missing, tick skipped")
		} else {
			log.Debug().Err(err).Str("module", "focus").Msg("foreground query failed, tick skipped")
		}
	} else {
		switch d.classify(app) {
		case sampleFocused:
			d.focusTime += delta
			d.streak += delta
			d.lastGoodCheck = now
			d.distracted = false
		case sampleForbidden:
			d.streak = 0
			d.distracted = true
			d.violationsCnt++
			fired = append(fired, domain.Violation{
				Type:        domain.VIOLATION_FORBIDDEN_APP,
				Description: "non-permitted app in foreground: " + app,
				Timestamp:   now,
			})
		case sampleLeft:
			d.streak = 0
			d.distracted = true
			d.violationsCnt++
			fired = append(fired, domain.Violation{
				Type:        domain.VIOLATION_LEFT_APP,
				Description: "left " + d.cfg.MonitoredApp + " for " + app,
				Timestamp:   now,
			})
			go d.recover(ctx)
		}
	}

	// Idle detection is independent of the sample classification; both
	// violations may fire in the same tick.
	if now.Sub(d.lastGoodCheck) > d.cfg.IdleThreshold {
		d.violationsCnt++
		d.streak = 0
		d.lastGoodCheck = now
		fired = append(fired, domain.Violation{
			Type:        domain.VIOLATION_IDLE_TOO_LONG,
			Description: "no focused activity past idle threshold",
			Timestamp:   now,
		})
	}
	d.mu.Unlock()

	for _, v := range fired {
		select {
		case d.violations <- v:
		default:
			log.Warn().Str("module", "focus").Str("type", v.Type.String()).Msg("violation consumer lagging, event dropped")
		}
	}
}

type sampleClass int

const (
	sampleFocused sampleClass = iota
	sampleForbidden
	sampleLeft
)

func (d *Detector) classify(app string) sampleClass {
	if app == d.cfg.MonitoredApp {
		return sampleFocused
	}
	for _, allowed := range d.cfg.AllowedApps {
		if app == allowed {
			if d.cfg.Strict {
				return sampleForbidden
			}
			return sampleFocused
		}
	}
	return sampleLeft
}

// recover tries to pull the monitored app back to the foreground.
// Best-effort: failure is logged, never fatal.
func (d *Detector) recover(ctx context.Context) {
	recoverCtx, cancel := context.WithTimeout(ctx, d.cfg.QueryTimeout)
	defer cancel()
	if err := d.querier.BringToForeground(recoverCtx, d.cfg.MonitoredApp); err != nil {
		log.Debug().Err(err).Str("module", "focus").Str("app", d.cfg.MonitoredApp).Msg("bring-to-foreground failed")
	}
}
