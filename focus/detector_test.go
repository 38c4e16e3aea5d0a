package focus

import (
	"context"
	"testing"
	"time"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const monitoredApp = "studychamp"

var testBase = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestDetector(t *testing.T, cfg Config) (*Detector, *MockQuerier) {
	t.Helper()
	querier := &MockQuerier{}
	tickers := &MockPeriodicTickerChannelCreator{}
	// the loop is driven by direct tick calls in tests, never by this channel
	tickers.On("Create", mock.Anything).Return(make(chan time.Time))

	d := NewDetector(cfg, querier, tickers)
	d.now = func() time.Time { return testBase }
	d.Start()
	t.Cleanup(d.Stop)
	return d, querier
}

func drainViolation(t *testing.T, d *Detector) domain.Violation {
	t.Helper()
	select {
	case v := <-d.Violations():
		return v
	default:
		t.Fatal("expected a violation on the channel")
		return domain.Violation{}
	}
}

func TestDetectorAccumulatesFocusTime(t *testing.T) {
	d, querier := newTestDetector(t, Config{MonitoredApp: monitoredApp})
	querier.On("CurrentForegroundApp", mock.Anything).Return(monitoredApp, nil)

	for i := 1; i <= 3; i++ {
		d.tick(context.Background(), testBase.Add(time.Duration(i)*3*time.Second))
	}

	snap := d.Snapshot()
	assert.Equal(t, 9, snap.FocusSeconds)
	assert.Equal(t, 9, snap.StreakSeconds)
	assert.Equal(t, 9, snap.ElapsedSeconds)
	assert.Equal(t, 0, snap.Violations)
	assert.False(t, snap.Distracted)
	assert.Equal(t, float64(100), snap.Score())
}

func TestDetectorLeftApp(t *testing.T) {
	d, querier := newTestDetector(t, Config{MonitoredApp: monitoredApp})
	querier.On("CurrentForegroundApp", mock.Anything).Return(monitoredApp, nil).Once()
	querier.On("CurrentForegroundApp", mock.Anything).Return("browser", nil).Once()

	recovered := make(chan struct{})
	querier.On("BringToForeground", mock.Anything, monitoredApp).Run(func(args mock.Arguments) {
		close(recovered)
	}).Return(nil).Once()

	d.tick(context.Background(), testBase.Add(3*time.Second))
	d.tick(context.Background(), testBase.Add(6*time.Second))

	v := drainViolation(t, d)
	assert.Equal(t, domain.VIOLATION_LEFT_APP, v.Type)
	assert.Contains(t, v.Description, "browser")

	snap := d.Snapshot()
	assert.Equal(t, 3, snap.FocusSeconds, "distracted tick earns no focus time")
	assert.Equal(t, 0, snap.StreakSeconds)
	assert.Equal(t, 1, snap.Violations)
	assert.True(t, snap.Distracted)

	select {
	case <-recovered:
	case <-time.After(time.Second):
		t.Fatal("bring-to-foreground was never attempted")
	}
}

func TestDetectorAllowedApps(t *testing.T) {
	t.Run("allow-listed app counts as focused", func(t *testing.T) {
		d, querier := newTestDetector(t, Config{MonitoredApp: monitoredApp, AllowedApps: []string{"calculator"}})
		querier.On("CurrentForegroundApp", mock.Anything).Return("calculator", nil)

		d.tick(context.Background(), testBase.Add(3*time.Second))

		snap := d.Snapshot()
		assert.Equal(t, 3, snap.FocusSeconds)
		assert.Equal(t, 0, snap.Violations)
	})

	t.Run("strict mode forbids even allow-listed apps", func(t *testing.T) {
		d, querier := newTestDetector(t, Config{MonitoredApp: monitoredApp, AllowedApps: []string{"calculator"}, Strict: true})
		querier.On("CurrentForegroundApp", mock.Anything).Return("calculator", nil)

		d.tick(context.Background(), testBase.Add(3*time.Second))

		v := drainViolation(t, d)
		assert.Equal(t, domain.VIOLATION_FORBIDDEN_APP, v.Type)
		querier.AssertNotCalled(t, "BringToForeground", mock.Anything, mock.Anything)
	})

	t.Run("monitored app is focused even in strict mode", func(t *testing.T) {
		d, querier := newTestDetector(t, Config{MonitoredApp: monitoredApp, Strict: true})
		querier.On("CurrentForegroundApp", mock.Anything).Return(monitoredApp, nil)

		d.tick(context.Background(), testBase.Add(3*time.Second))

		assert.Equal(t, 0, d.Snapshot().Violations)
	})
}

func TestDetectorQueryFailureSkipsTick(t *testing.T) {
	d, querier := newTestDetector(t, Config{MonitoredApp: monitoredApp})
	querier.On("CurrentForegroundApp", mock.Anything).Return(monitoredApp, nil).Once()
	querier.On("CurrentForegroundApp", mock.Anything).Return("", assert.AnError).Once()
	querier.On("CurrentForegroundApp", mock.Anything).Return(monitoredApp, nil).Once()

	d.tick(context.Background(), testBase.Add(3*time.Second))
	d.tick(context.Background(), testBase.Add(6*time.Second))
	d.tick(context.Background(), testBase.Add(9*time.Second))

	snap := d.Snapshot()
	assert.Equal(t, 6, snap.FocusSeconds, "unclassifiable tick earns nothing")
	assert.Equal(t, 0, snap.Violations, "a failing query is not a violation")
	assert.Equal(t, 9, snap.ElapsedSeconds)
}

func TestDetectorMissingPermissionIsNonFatal(t *testing.T) {
	d, querier := newTestDetector(t, Config{MonitoredApp: monitoredApp})
	querier.On("CurrentForegroundApp", mock.Anything).Return("", domain.ErrPermissionUnavailable).Twice()
	querier.On("CurrentForegroundApp", mock.Anything).Return(monitoredApp, nil).Once()

	d.tick(context.Background(), testBase.Add(3*time.Second))
	d.tick(context.Background(), testBase.Add(6*time.Second))
	// permission granted, classification resumes
	d.tick(context.Background(), testBase.Add(9*time.Second))

	snap := d.Snapshot()
	assert.Equal(t, 3, snap.FocusSeconds)
	assert.Equal(t, 0, snap.Violations)
	assert.True(t, d.Running())
}

func TestDetectorIdleViolation(t *testing.T) {
	d, querier := newTestDetector(t, Config{MonitoredApp: monitoredApp, IdleThreshold: 60 * time.Second})
	querier.On("CurrentForegroundApp", mock.Anything).Return("", assert.AnError)

	// queries keep failing, so the last good check never advances
	d.tick(context.Background(), testBase.Add(30*time.Second))
	assert.Equal(t, 0, d.Snapshot().Violations)

	d.tick(context.Background(), testBase.Add(61*time.Second))
	v := drainViolation(t, d)
	assert.Equal(t, domain.VIOLATION_IDLE_TOO_LONG, v.Type)

	// the idle timer resets after firing, no duplicate on the next tick
	d.tick(context.Background(), testBase.Add(64*time.Second))
	assert.Equal(t, 1, d.Snapshot().Violations)

	// but it re-arms once another full threshold elapses
	d.tick(context.Background(), testBase.Add(122*time.Second))
	v = drainViolation(t, d)
	assert.Equal(t, domain.VIOLATION_IDLE_TOO_LONG, v.Type)
	assert.Equal(t, 2, d.Snapshot().Violations)
}

func TestDetectorLeftAppAndIdleInOneTick(t *testing.T) {
	d, querier := newTestDetector(t, Config{MonitoredApp: monitoredApp, IdleThreshold: 60 * time.Second})
	querier.On("CurrentForegroundApp", mock.Anything).Return("browser", nil)
	querier.On("BringToForeground", mock.Anything, monitoredApp).Return(nil)

	d.tick(context.Background(), testBase.Add(61*time.Second))

	first := drainViolation(t, d)
	second := drainViolation(t, d)
	assert.Equal(t, domain.VIOLATION_LEFT_APP, first.Type)
	assert.Equal(t, domain.VIOLATION_IDLE_TOO_LONG, second.Type)
	assert.Equal(t, 2, d.Snapshot().Violations)
}

func TestDetectorStartStop(t *testing.T) {
	querier := &MockQuerier{}
	tickers := &MockPeriodicTickerChannelCreator{}
	ticks := make(chan time.Time)
	tickers.On("Create", DefaultInterval).Return(ticks)

	d := NewDetector(Config{MonitoredApp: monitoredApp}, querier, tickers)

	require.False(t, d.Running())
	d.Start()
	require.True(t, d.Running())

	// second start is ignored, no second ticker is created
	d.Start()
	tickers.AssertNumberOfCalls(t, "Create", 1)

	querier.On("CurrentForegroundApp", mock.Anything).Return(monitoredApp, nil)
	ticks <- time.Now()

	d.Stop()
	require.False(t, d.Running())
	d.Stop()

	// a stopped loop must not consume further ticks
	select {
	case ticks <- time.Now():
		t.Fatal("tick consumed after stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDetectorCountersResetOnRestart(t *testing.T) {
	querier := &MockQuerier{}
	tickers := &MockPeriodicTickerChannelCreator{}
	tickers.On("Create", mock.Anything).Return(make(chan time.Time))

	d := NewDetector(Config{MonitoredApp: monitoredApp}, querier, tickers)
	d.now = func() time.Time { return testBase }
	querier.On("CurrentForegroundApp", mock.Anything).Return(monitoredApp, nil)

	d.Start()
	d.tick(context.Background(), testBase.Add(3*time.Second))
	require.Equal(t, 3, d.Snapshot().FocusSeconds)
	d.Stop()

	d.Start()
	defer d.Stop()
	assert.Equal(t, 0, d.Snapshot().FocusSeconds)
	assert.Equal(t, 0, d.Snapshot().ElapsedSeconds)
}

func TestFocusScore(t *testing.T) {
	tests := []struct {
		name    string
		focus   int
		elapsed int
		want    float64
	}{
		{"zero elapsed", 10, 0, 0},
		{"fully focused", 300, 300, 100},
		{"half focused", 150, 300, 50},
		{"clamped above", 400, 300, 100},
		{"negative focus clamped", -5, 300, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FocusScore(tt.focus, tt.elapsed))
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.fillDefaults()
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultIdleThreshold, cfg.IdleThreshold)
	assert.Equal(t, cfg.Interval, cfg.QueryTimeout)

	over := Config{Interval: time.Second, QueryTimeout: 5 * time.Second}
	over.fillDefaults()
	assert.Equal(t, time.Second, over.QueryTimeout, "query timeout never exceeds the interval")
}
