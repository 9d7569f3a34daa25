package timer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictask/backend/internal/model"
)

func TestNewMaterializesDefaults(t *testing.T) {
	store := &memStore{}
	h := newHarnessWithStore(t, store, newFakeClock())

	state := h.engine.State()
	assert.Equal(t, model.StatusIdle, state.Status)
	assert.Equal(t, model.ModeFocus, state.Mode)
	assert.Equal(t, model.DefaultFocusDurationSeconds, state.TimeRemaining)
	assert.Zero(t, state.PomodorosCompleted)
	assert.Nil(t, state.CurrentTaskID)

	require.NotNil(t, store.config)
	assert.Equal(t, model.DefaultTimerConfig(), *store.config)
	require.NotNil(t, store.state)
	assert.Equal(t, state, *store.state)
	assert.False(t, h.engine.Ticking())
}

func TestStartBindsTaskAndArmsLoop(t *testing.T) {
	h := newHarness(t, standardConfig())
	taskID := "task-1"

	state, err := h.engine.Start(context.Background(), &taskID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, state.Status)
	require.NotNil(t, state.CurrentTaskID)
	assert.Equal(t, taskID, *state.CurrentTaskID)
	assert.Equal(t, h.clock.Now().UnixMilli(), state.LastUpdateTime)
	assert.True(t, h.engine.Ticking())
	assert.Equal(t, []string{"Pomodoro Timer Started"}, h.notifier.sent())
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	h := newHarness(t, standardConfig())
	first := h.start(t)
	puts := h.store.puts()

	h.clock.Advance(400 * time.Millisecond)
	second := h.start(t)

	assert.Equal(t, first, second)
	assert.Equal(t, puts, h.store.puts())
}

func TestReconciliationIndependentOfCallbackCount(t *testing.T) {
	const span = 70 * time.Second

	single := newHarness(t, standardConfig())
	single.start(t)
	singleState := single.tickAfter(t, span)

	many := newHarness(t, standardConfig())
	many.start(t)
	var manyState model.TimerState
	for i := 0; i < 100; i++ {
		manyState = many.tickAfter(t, 700*time.Millisecond)
	}

	none := newHarness(t, standardConfig())
	none.start(t)
	none.clock.Advance(span)
	noneState, err := none.engine.Pause(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1430, singleState.TimeRemaining)
	assert.Equal(t, 1430, manyState.TimeRemaining)
	assert.Equal(t, 1430, noneState.TimeRemaining)
}

func TestSubSecondRemainderCarriesOver(t *testing.T) {
	h := newHarness(t, standardConfig())
	started := h.start(t)

	state := h.tickAfter(t, 1500*time.Millisecond)
	assert.Equal(t, 1499, state.TimeRemaining)
	assert.Equal(t, started.LastUpdateTime+1000, state.LastUpdateTime)

	state = h.tickAfter(t, 500*time.Millisecond)
	assert.Equal(t, 1498, state.TimeRemaining)
	assert.Equal(t, started.LastUpdateTime+2000, state.LastUpdateTime)
}

func TestStartPauseSequenceChargesOnlyRunningTime(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()

	h.start(t)
	h.clock.Advance(10 * time.Second)
	paused, err := h.engine.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaused, paused.Status)
	assert.Equal(t, 1490, paused.TimeRemaining)
	assert.False(t, h.engine.Ticking())

	// Time spent paused is never charged.
	state := h.tickAfter(t, 300*time.Second)
	assert.Equal(t, 1490, state.TimeRemaining)

	h.start(t)
	state = h.tickAfter(t, 20*time.Second)
	assert.Equal(t, model.StatusRunning, state.Status)
	assert.Equal(t, 1470, state.TimeRemaining)
}

func TestPauseWhenNotRunningIsNoop(t *testing.T) {
	h := newHarness(t, standardConfig())
	puts := h.store.puts()

	state, err := h.engine.Pause(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusIdle, state.Status)
	assert.Equal(t, puts, h.store.puts())
}

func TestResetIsIdempotent(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()
	taskID := "task-1"

	_, err := h.engine.Start(ctx, &taskID)
	require.NoError(t, err)
	h.tickAfter(t, 30*time.Second)

	first, err := h.engine.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIdle, first.Status)
	assert.Equal(t, model.ModeFocus, first.Mode)
	assert.Equal(t, 1500, first.TimeRemaining)
	assert.Nil(t, first.CurrentTaskID)
	assert.False(t, h.engine.Ticking())

	puts := h.store.puts()
	second, err := h.engine.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, puts, h.store.puts())
}

func TestFocusCompletionEndToEnd(t *testing.T) {
	h := newHarness(t, standardConfig())
	taskID := "task-1"

	_, err := h.engine.Start(context.Background(), &taskID)
	require.NoError(t, err)
	state := h.tickAfter(t, 1500*time.Second)

	assert.Equal(t, model.StatusBreak, state.Status)
	assert.Equal(t, model.ModeBreak, state.Mode)
	assert.Equal(t, 1, state.PomodorosCompleted)
	assert.Equal(t, 300, state.TimeRemaining)
	assert.False(t, h.engine.Ticking())

	pomodoros := h.sessions.ofType(model.SessionPomodoro)
	require.Len(t, pomodoros, 1)
	assert.Equal(t, 1500, pomodoros[0].Duration)
	assert.True(t, pomodoros[0].Completed)
	require.NotNil(t, pomodoros[0].TaskID)
	assert.Equal(t, taskID, *pomodoros[0].TaskID)
	assert.Contains(t, h.notifier.sent(), "Break Time!")
}

func TestCompletionTimestampsUseCompletionInstant(t *testing.T) {
	h := newHarness(t, standardConfig())
	started := h.start(t)

	// Process was asleep well past the end of the interval.
	h.tickAfter(t, 2000*time.Second)

	pomodoros := h.sessions.ofType(model.SessionPomodoro)
	require.Len(t, pomodoros, 1)
	assert.Equal(t, started.LastUpdateTime, pomodoros[0].StartTime)
	assert.Equal(t, started.LastUpdateTime+1500*1000, pomodoros[0].EndTime)
}

func TestLongBreakCadence(t *testing.T) {
	cfg := model.TimerConfig{
		FocusDuration:      60,
		ShortBreakDuration: 5,
		LongBreakDuration:  15,
		LongBreakInterval:  4,
	}
	h := newHarness(t, cfg)
	ctx := context.Background()

	for completed := 1; completed <= 8; completed++ {
		h.start(t)
		state := h.tickAfter(t, 60*time.Second)
		require.Equal(t, model.StatusBreak, state.Status)
		require.Equal(t, completed, state.PomodorosCompleted)

		want := 5
		if completed%4 == 0 {
			want = 15
		}
		assert.Equal(t, want, state.TimeRemaining, "break after pomodoro %d", completed)

		_, err := h.engine.SkipBreak(ctx)
		require.NoError(t, err)
	}
	assert.Len(t, h.sessions.ofType(model.SessionPomodoro), 8)
}

func TestSkipBreakRecordsNoSession(t *testing.T) {
	h := newHarness(t, standardConfig())
	taskID := "task-1"

	_, err := h.engine.Start(context.Background(), &taskID)
	require.NoError(t, err)
	h.tickAfter(t, 1500*time.Second)

	state, err := h.engine.SkipBreak(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusIdle, state.Status)
	assert.Equal(t, model.ModeFocus, state.Mode)
	assert.Equal(t, 1500, state.TimeRemaining)
	assert.Equal(t, 1, state.PomodorosCompleted)
	assert.Nil(t, state.CurrentTaskID)

	sessions := h.sessions.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, model.SessionPomodoro, sessions[0].Type)
}

func TestSkipBreakOutsideBreakIsNoop(t *testing.T) {
	h := newHarness(t, standardConfig())
	running := h.start(t)

	state, err := h.engine.SkipBreak(context.Background())
	require.NoError(t, err)
	assert.Equal(t, running, state)
	assert.True(t, h.engine.Ticking())
}

func TestBreakCompletionReturnsToIdleFocus(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()
	taskID := "task-1"

	_, err := h.engine.Start(ctx, &taskID)
	require.NoError(t, err)
	h.tickAfter(t, 1500*time.Second)

	state, err := h.engine.StartBreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, state.Status)
	assert.Equal(t, model.ModeBreak, state.Mode)
	assert.True(t, h.engine.Ticking())

	state = h.tickAfter(t, 300*time.Second)
	assert.Equal(t, model.StatusIdle, state.Status)
	assert.Equal(t, model.ModeFocus, state.Mode)
	assert.Equal(t, 1500, state.TimeRemaining)
	assert.Nil(t, state.CurrentTaskID)
	assert.False(t, h.engine.Ticking())

	breaks := h.sessions.ofType(model.SessionShortBreak)
	require.Len(t, breaks, 1)
	assert.Equal(t, 300, breaks[0].Duration)
	assert.Contains(t, h.notifier.sent(), "Break Complete")
}

func TestStartBreakOutsideBreakIsNoop(t *testing.T) {
	h := newHarness(t, standardConfig())
	puts := h.store.puts()

	state, err := h.engine.StartBreak(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusIdle, state.Status)
	assert.Equal(t, puts, h.store.puts())
	assert.False(t, h.engine.Ticking())
}

func TestStartDuringPendingBreakStartsBreak(t *testing.T) {
	h := newHarness(t, standardConfig())
	h.start(t)
	h.tickAfter(t, 1500*time.Second)

	state := h.start(t)
	assert.Equal(t, model.StatusRunning, state.Status)
	assert.Equal(t, model.ModeBreak, state.Mode)
	assert.Equal(t, 300, state.TimeRemaining)
}

func TestPauseDuringBreakKeepsBreakStatus(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()
	h.start(t)
	h.tickAfter(t, 1500*time.Second)
	_, err := h.engine.StartBreak(ctx)
	require.NoError(t, err)

	h.clock.Advance(100 * time.Second)
	state, err := h.engine.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBreak, state.Status)
	assert.Equal(t, model.ModeBreak, state.Mode)
	assert.Equal(t, 200, state.TimeRemaining)
	assert.False(t, h.engine.Ticking())

	h.clock.Advance(time.Hour)
	state, err = h.engine.StartBreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, state.Status)
	assert.Equal(t, 200, state.TimeRemaining)
}

func TestResetDuringBreakRestoresBreakDuration(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()
	h.start(t)
	h.tickAfter(t, 1500*time.Second)
	_, err := h.engine.StartBreak(ctx)
	require.NoError(t, err)
	h.tickAfter(t, 120*time.Second)

	state, err := h.engine.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIdle, state.Status)
	assert.Equal(t, model.ModeBreak, state.Mode)
	assert.Equal(t, 300, state.TimeRemaining)
	assert.Equal(t, 1, state.PomodorosCompleted)
}

func TestResetCount(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()
	h.start(t)
	h.tickAfter(t, 1500*time.Second)
	_, err := h.engine.SkipBreak(ctx)
	require.NoError(t, err)

	state, err := h.engine.ResetCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, state.PomodorosCompleted)
	assert.Equal(t, model.StatusIdle, state.Status)
	assert.Equal(t, 1500, state.TimeRemaining)
	assert.Zero(t, h.store.state.PomodorosCompleted)
}

func TestResetCountDuringBreakKeepsBreakKind(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()
	h.start(t)
	h.tickAfter(t, 1500*time.Second)
	puts := h.store.puts()

	state, err := h.engine.ResetCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.PomodorosCompleted)
	assert.Equal(t, model.StatusBreak, state.Status)
	assert.Equal(t, puts, h.store.puts())

	_, err = h.engine.StartBreak(ctx)
	require.NoError(t, err)
	h.clock.Advance(100 * time.Second)
	_, err = h.engine.ResetCount(ctx)
	require.NoError(t, err)

	state, err = h.engine.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, state.TimeRemaining)
	_, err = h.engine.ResetCount(ctx)
	require.NoError(t, err)

	h.start(t)
	state = h.tickAfter(t, 300*time.Second)
	assert.Equal(t, model.StatusIdle, state.Status)
	assert.Equal(t, 1, state.PomodorosCompleted)

	breaks := h.sessions.ofType(model.SessionShortBreak)
	require.Len(t, breaks, 1)
	assert.Equal(t, 300, breaks[0].Duration)
	assert.Empty(t, h.sessions.ofType(model.SessionLongBreak))
}

func TestPauseResumeCreditsSubSecondRemainder(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()

	h.start(t)
	h.clock.Advance(1500 * time.Millisecond)
	paused, err := h.engine.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1499, paused.TimeRemaining)
	assert.Equal(t, int64(500), paused.CarryMillis)
	assert.Equal(t, h.clock.Now().UnixMilli(), paused.LastUpdateTime)

	h.clock.Advance(time.Minute)
	resumed := h.start(t)
	assert.Zero(t, resumed.CarryMillis)
	assert.Equal(t, h.clock.Now().UnixMilli()-500, resumed.LastUpdateTime)

	h.clock.Advance(1500 * time.Millisecond)
	paused, err = h.engine.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1497, paused.TimeRemaining)
	assert.Zero(t, paused.CarryMillis)
}

func TestPausedBreakCreditsSubSecondRemainder(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()
	h.start(t)
	h.tickAfter(t, 1500*time.Second)
	_, err := h.engine.StartBreak(ctx)
	require.NoError(t, err)

	h.clock.Advance(1500 * time.Millisecond)
	_, err = h.engine.Pause(ctx)
	require.NoError(t, err)
	_, err = h.engine.StartBreak(ctx)
	require.NoError(t, err)
	h.clock.Advance(1500 * time.Millisecond)
	state, err := h.engine.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBreak, state.Status)
	assert.Equal(t, 297, state.TimeRemaining)
}

func TestResetClearsPauseCarry(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()
	h.start(t)
	h.clock.Advance(700 * time.Millisecond)
	_, err := h.engine.Pause(ctx)
	require.NoError(t, err)

	state, err := h.engine.Reset(ctx)
	require.NoError(t, err)
	assert.Zero(t, state.CarryMillis)

	state = h.start(t)
	assert.Equal(t, h.clock.Now().UnixMilli(), state.LastUpdateTime)
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, standardConfig())
	events, unsubscribe := h.hub.Subscribe(4)
	defer unsubscribe()
	before := h.engine.State()

	h.store.setFailure(errDiskFull)
	state, err := h.engine.Start(context.Background(), nil)
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, before, state)
	assert.Equal(t, before, h.engine.State())
	assert.False(t, h.engine.Ticking())
	assert.Empty(t, h.notifier.sent())
	assert.Len(t, events, 0)
}

func TestCompletionRetryAfterFailedWriteRecordsOnce(t *testing.T) {
	h := newHarness(t, standardConfig())
	ctx := context.Background()
	running := h.start(t)

	h.store.setFailure(errDiskFull)
	h.clock.Advance(1500 * time.Second)
	state, err := h.engine.Tick(ctx)
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, running, state)

	h.store.setFailure(nil)
	state, err = h.engine.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBreak, state.Status)
	assert.Equal(t, 1, state.PomodorosCompleted)
	assert.Len(t, h.sessions.ofType(model.SessionPomodoro), 1)
}

func TestClockMovingBackwardsRebasesCountdown(t *testing.T) {
	h := newHarness(t, standardConfig())
	h.start(t)
	h.tickAfter(t, 10*time.Second)

	state := h.tickAfter(t, -time.Hour)
	assert.Equal(t, model.StatusRunning, state.Status)
	assert.Equal(t, 1490, state.TimeRemaining)
	assert.Equal(t, h.clock.Now().UnixMilli(), state.LastUpdateTime)

	state = h.tickAfter(t, 5*time.Second)
	assert.Equal(t, 1485, state.TimeRemaining)
}

func TestMutationsArePublished(t *testing.T) {
	h := newHarness(t, standardConfig())
	events, unsubscribe := h.hub.Subscribe(4)
	defer unsubscribe()

	h.start(t)

	select {
	case event := <-events:
		assert.Equal(t, "TIMER_UPDATE", event.Type)
		assert.Equal(t, model.StatusRunning, event.State.Status)
	case <-time.After(time.Second):
		t.Fatal("expected a timer update event")
	}
}

func TestNotifierFailureDoesNotFailCommand(t *testing.T) {
	h := newHarness(t, standardConfig())
	h.notifier.err = errDiskFull

	state := h.start(t)
	assert.Equal(t, model.StatusRunning, state.Status)
}

func TestLoadRestoresPersistedStateWithoutArming(t *testing.T) {
	clock := newFakeClock()
	cfg := standardConfig()
	taskID := "task-1"
	store := &memStore{
		config: &cfg,
		state: &model.TimerState{
			TimeRemaining:  600,
			Status:         model.StatusRunning,
			Mode:           model.ModeFocus,
			CurrentTaskID:  &taskID,
			LastUpdateTime: clock.Now().UnixMilli(),
		},
	}
	h := newHarnessWithStore(t, store, clock)

	assert.Equal(t, model.StatusRunning, h.engine.State().Status)
	assert.False(t, h.engine.Ticking())

	clock.Advance(45 * time.Second)
	state := h.start(t)
	assert.True(t, h.engine.Ticking())
	assert.Equal(t, 555, state.TimeRemaining)
	require.NotNil(t, state.CurrentTaskID)
	assert.Equal(t, taskID, *state.CurrentTaskID)
}
