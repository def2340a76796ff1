package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

func newTestEngine(t *testing.T, duration int) (*Engine, *[]Completion) {
	t.Helper()

	e := NewEngine(Timer{
		ID:        "t-1",
		Name:      "Tea",
		Category:  "Kitchen",
		Duration:  duration,
		Remaining: duration,
	}, WithClock(func() time.Time { return fixedNow }))

	var (
		mu  sync.Mutex
		got []Completion
	)
	e.OnComplete(func(c Completion) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, c)
	})
	return e, &got
}

func TestEngine_TicksDownToCompletion(t *testing.T) {
	e, completions := newTestEngine(t, 5)

	_, err := e.Start()
	require.NoError(t, err)

	for want := 4; want >= 1; want-- {
		require.True(t, e.Tick())
		snap := e.Snapshot()
		assert.Equal(t, want, snap.Remaining)
		assert.Equal(t, StateRunning, snap.State)
		assert.Empty(t, *completions)
	}

	require.True(t, e.Tick())
	snap := e.Snapshot()
	assert.Equal(t, 0, snap.Remaining)
	assert.Equal(t, StateCompleted, snap.State)
	assert.False(t, e.Timer().Running)

	require.Len(t, *completions, 1)
	assert.Equal(t, Completion{ID: "t-1", Name: "Tea", Time: fixedNow}, (*completions)[0])
}

func TestEngine_TicksAfterCompletionAreIgnored(t *testing.T) {
	e, completions := newTestEngine(t, 2)

	_, err := e.Start()
	require.NoError(t, err)
	e.Tick()
	e.Tick()

	for range 5 {
		assert.False(t, e.Tick())
	}

	assert.Equal(t, 0, e.Snapshot().Remaining)
	assert.Len(t, *completions, 1)
}

func TestEngine_TickWhileIdleIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, 3)

	assert.False(t, e.Tick())
	assert.Equal(t, 3, e.Snapshot().Remaining)
	assert.Equal(t, StateIdle, e.State())
}

func TestEngine_StartCompletedIsRejected(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	_, err := e.Start()
	require.NoError(t, err)
	e.Tick()

	_, err = e.Start()
	require.ErrorIs(t, err, ErrCompleted)
	assert.Equal(t, StateCompleted, e.State())
}

func TestEngine_StartWhileRunningKeepsEpoch(t *testing.T) {
	e, _ := newTestEngine(t, 10)

	first, err := e.Start()
	require.NoError(t, err)
	second, err := e.Start()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_PauseResumeKeepsRemaining(t *testing.T) {
	e, _ := newTestEngine(t, 10)

	_, err := e.Start()
	require.NoError(t, err)
	e.Tick()
	e.Tick()
	e.Tick()

	require.True(t, e.Pause())
	assert.Equal(t, 7, e.Snapshot().Remaining)
	assert.Equal(t, StateIdle, e.State())
	assert.False(t, e.Pause(), "second pause is a no-op")

	_, err = e.Start()
	require.NoError(t, err)
	assert.Equal(t, 7, e.Snapshot().Remaining)

	e.Tick()
	assert.Equal(t, 6, e.Snapshot().Remaining)
}

func TestEngine_StaleEpochTicksAreNoops(t *testing.T) {
	e, _ := newTestEngine(t, 10)

	oldRun, err := e.Start()
	require.NoError(t, err)
	require.True(t, e.TickEpoch(oldRun))

	e.Pause()
	assert.False(t, e.TickEpoch(oldRun), "tick after pause")

	newRun, err := e.Start()
	require.NoError(t, err)
	assert.NotEqual(t, oldRun, newRun)

	assert.False(t, e.TickEpoch(oldRun), "lingering tick from the previous run")
	assert.Equal(t, 9, e.Snapshot().Remaining)

	require.True(t, e.TickEpoch(newRun))
	assert.Equal(t, 8, e.Snapshot().Remaining)

	e.Reset()
	assert.False(t, e.TickEpoch(newRun), "tick after reset")
	assert.Equal(t, 10, e.Snapshot().Remaining)
}

func TestEngine_ResetRearmsCompletion(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *Engine)
	}{
		{name: "from idle", setup: func(e *Engine) {}},
		{name: "from running", setup: func(e *Engine) {
			_, _ = e.Start()
			e.Tick()
		}},
		{name: "from paused", setup: func(e *Engine) {
			_, _ = e.Start()
			e.Tick()
			e.Pause()
		}},
		{name: "from completed", setup: func(e *Engine) {
			_, _ = e.Start()
			e.Tick()
			e.Tick()
			e.Tick()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, completions := newTestEngine(t, 3)
			tt.setup(e)
			before := len(*completions)

			e.Reset()

			tm := e.Timer()
			assert.Equal(t, 3, tm.Remaining)
			assert.False(t, tm.Running)
			assert.Equal(t, StateIdle, e.State())

			_, err := e.Start()
			require.NoError(t, err)
			e.Tick()
			e.Tick()
			e.Tick()

			assert.Len(t, *completions, before+1, "a full run after reset completes again")
		})
	}
}

func TestEngine_Unsubscribe(t *testing.T) {
	e := NewEngine(Timer{ID: "t", Name: "n", Duration: 1, Remaining: 1})

	calls := 0
	unsubscribe := e.OnComplete(func(Completion) { calls++ })
	unsubscribe()

	_, err := e.Start()
	require.NoError(t, err)
	e.Tick()

	assert.Zero(t, calls)
}

func TestNewEngine_RestoresPersistedState(t *testing.T) {
	tests := []struct {
		name          string
		in            Timer
		wantState     State
		wantRemaining int
	}{
		{
			name:          "fresh",
			in:            Timer{ID: "a", Duration: 5, Remaining: 5},
			wantState:     StateIdle,
			wantRemaining: 5,
		},
		{
			name:          "persisted while running",
			in:            Timer{ID: "a", Duration: 5, Remaining: 3, Running: true},
			wantState:     StateIdle,
			wantRemaining: 3,
		},
		{
			name:          "finished",
			in:            Timer{ID: "a", Duration: 5, Remaining: 0},
			wantState:     StateCompleted,
			wantRemaining: 0,
		},
		{
			name:          "remaining above duration is clamped",
			in:            Timer{ID: "a", Duration: 5, Remaining: 9},
			wantState:     StateIdle,
			wantRemaining: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.in)
			snap := e.Snapshot()
			assert.Equal(t, tt.wantState, snap.State)
			assert.Equal(t, tt.wantRemaining, snap.Remaining)
			assert.False(t, e.Timer().Running)
		})
	}
}

func TestEngine_ConcurrentTicksCompleteOnce(t *testing.T) {
	e, completions := newTestEngine(t, 50)
	_, err := e.Start()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Tick()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, e.Snapshot().Remaining)
	assert.Len(t, *completions, 1)
}
