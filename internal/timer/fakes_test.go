package timer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"tictask/backend/internal/broadcast"
	"tictask/backend/internal/model"
	"tictask/backend/internal/recorder"
	"tictask/backend/internal/repository"
	"tictask/backend/internal/timer"
)

var errDiskFull = errors.New("disk full")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memStore struct {
	mu        sync.Mutex
	state     *model.TimerState
	config    *model.TimerConfig
	failPuts  error
	statePuts int
}

func (s *memStore) GetState(context.Context) (*model.TimerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, repository.ErrNotFound
	}
	state := s.state.Clone()
	return &state, nil
}

func (s *memStore) PutState(_ context.Context, state model.TimerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPuts != nil {
		return s.failPuts
	}
	stored := state.Clone()
	s.state = &stored
	s.statePuts++
	return nil
}

func (s *memStore) GetConfig(context.Context) (*model.TimerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return nil, repository.ErrNotFound
	}
	cfg := *s.config
	return &cfg, nil
}

func (s *memStore) PutConfig(_ context.Context, cfg model.TimerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPuts != nil {
		return s.failPuts
	}
	s.config = &cfg
	return nil
}

func (s *memStore) setFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts = err
}

func (s *memStore) puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statePuts
}

type memSessions struct {
	mu       sync.Mutex
	sessions []model.Session
	seen     map[string]bool
}

func (m *memSessions) Add(_ context.Context, session *model.Session) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[session.ID] {
		return false, nil
	}
	m.seen[session.ID] = true
	m.sessions = append(m.sessions, *session)
	return true, nil
}

func (m *memSessions) all() []model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Session(nil), m.sessions...)
}

func (m *memSessions) ofType(t model.SessionType) []model.Session {
	var out []model.Session
	for _, session := range m.all() {
		if session.Type == t {
			out = append(out, session)
		}
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return n.err
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.titles...)
}

type harness struct {
	engine   *timer.Engine
	store    *memStore
	sessions *memSessions
	clock    *fakeClock
	hub      *broadcast.Hub
	notifier *recordingNotifier
}

func standardConfig() model.TimerConfig {
	return model.TimerConfig{
		FocusDuration:      1500,
		ShortBreakDuration: 300,
		LongBreakDuration:  900,
		LongBreakInterval:  4,
	}
}

func newHarness(t *testing.T, cfg model.TimerConfig) *harness {
	t.Helper()
	store := &memStore{config: &cfg}
	return newHarnessWithStore(t, store, newFakeClock())
}

func newHarnessWithStore(t *testing.T, store *memStore, clock *fakeClock) *harness {
	t.Helper()
	sessions := &memSessions{}
	hub := broadcast.NewHub(zerolog.Nop())
	notifier := &recordingNotifier{}

	engine, err := timer.New(
		context.Background(),
		store,
		recorder.New(sessions, nil, time.UTC, zerolog.Nop()),
		hub,
		notifier,
		timer.Options{
			// Ticks are driven by the tests through Engine.Tick.
			TickInterval: time.Hour,
			Clock:        clock.Now,
			Logger:       zerolog.Nop(),
		},
	)
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return &harness{
		engine:   engine,
		store:    store,
		sessions: sessions,
		clock:    clock,
		hub:      hub,
		notifier: notifier,
	}
}

func (h *harness) start(t *testing.T) model.TimerState {
	t.Helper()
	state, err := h.engine.Start(context.Background(), nil)
	require.NoError(t, err)
	return state
}

func (h *harness) tickAfter(t *testing.T, d time.Duration) model.TimerState {
	t.Helper()
	h.clock.Advance(d)
	state, err := h.engine.Tick(context.Background())
	require.NoError(t, err)
	return state
}
