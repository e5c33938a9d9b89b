package vps

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tcordeir0/vpsurge-fin/internal/notify"
)

// randSource is the random decider behind every simulated outcome. Tests
// inject a fixed sequence; production uses math/rand/v2.
type randSource interface {
	Float64() float64
	IntN(n int) int
}

// Sleeper waits for the simulated operation delay. The default respects
// context cancellation; tests pass a no-op.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ManagerConfig holds the simulated operation delays.
type ManagerConfig struct {
	TestDelay    time.Duration
	RestartDelay time.Duration
	ToggleDelay  time.Duration
	RefreshDelay time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		TestDelay:    2 * time.Second,
		RestartDelay: 3 * time.Second,
		ToggleDelay:  2 * time.Second,
		RefreshDelay: 3 * time.Second,
	}
}

// Manager owns the panel state: configuration entries plus their simulated
// statuses. All outcomes are decided by the random source; no network
// traffic ever leaves this package.
type Manager struct {
	store    *FileStore
	notifier notify.Notifier
	config   ManagerConfig

	rand  randSource
	sleep Sleeper
	nowFn func() time.Time

	mu       sync.Mutex
	configs  []Config
	statuses []Status
}

func NewManager(store *FileStore, notifier notify.Notifier, config ManagerConfig) *Manager {
	configs, statuses := store.Load()
	return &Manager{
		store:    store,
		notifier: notifier,
		config:   config,
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		sleep:    defaultSleeper,
		nowFn:    time.Now,
		configs:  configs,
		statuses: statuses,
	}
}

// Configs returns a copy of the configuration entries.
func (m *Manager) Configs() []Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Config(nil), m.configs...)
}

// Statuses returns a copy of the simulated statuses.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Status(nil), m.statuses...)
}

// AddConfig stores a new entry with an unknown initial status and an
// expiration date thirty days out.
func (m *Manager) AddConfig(ctx context.Context, cfg Config) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	m.mu.Lock()
	now := m.nowFn()
	m.configs = append(m.configs, cfg)
	m.statuses = append(m.statuses, Status{
		ID:             cfg.ID,
		Name:           cfg.Name,
		State:          StateUnknown,
		Host:           cfg.Host,
		Location:       "unknown",
		ExpirationDate: now.Add(30 * 24 * time.Hour),
		LastChecked:    now,
	})
	err := m.persistLocked()
	m.mu.Unlock()

	if err != nil {
		return Config{}, err
	}
	m.notifier.Success(ctx, "Server configuration saved")
	return cfg, nil
}

// UpdateConfig replaces an entry and propagates its name and host to the
// matching status.
func (m *Manager) UpdateConfig(ctx context.Context, id string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.ID = id

	m.mu.Lock()
	found := false
	for i := range m.configs {
		if m.configs[i].ID == id {
			m.configs[i] = cfg
			found = true
			break
		}
	}
	if !found {
		m.mu.Unlock()
		return ErrNotFound
	}
	for i := range m.statuses {
		if m.statuses[i].ID == id {
			m.statuses[i].Name = cfg.Name
			m.statuses[i].Host = cfg.Host
		}
	}
	err := m.persistLocked()
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.notifier.Success(ctx, "Server configuration updated")
	return nil
}

// DeleteConfig removes the entry and its status.
func (m *Manager) DeleteConfig(ctx context.Context, id string) error {
	m.mu.Lock()
	before := len(m.configs)
	m.configs = deleteByID(m.configs, id, func(c Config) string { return c.ID })
	m.statuses = deleteByID(m.statuses, id, func(s Status) string { return s.ID })
	if len(m.configs) == before {
		m.mu.Unlock()
		return ErrNotFound
	}
	err := m.persistLocked()
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.notifier.Success(ctx, "Server configuration removed")
	return nil
}

// TestConnection simulates probing one server: it succeeds seven times out
// of ten. Success marks the server online with fresh usage numbers; failure
// marks it offline.
func (m *Manager) TestConnection(ctx context.Context, id string) (Status, error) {
	cfg, err := m.configByID(id)
	if err != nil {
		return Status{}, err
	}

	m.notifier.Info(ctx, "Testing connection...")
	if err := m.sleep(ctx, m.config.TestDelay); err != nil {
		return Status{}, err
	}

	m.mu.Lock()
	success := m.rand.Float64() > 0.3
	var result Status
	for i := range m.statuses {
		if m.statuses[i].ID != id {
			continue
		}
		m.statuses[i].LastChecked = m.nowFn()
		if success {
			m.statuses[i].State = StateOnline
			m.statuses[i].CPUUsage = m.rand.IntN(100)
			m.statuses[i].RAMUsage = m.rand.IntN(100)
			m.statuses[i].DiskUsage = m.rand.IntN(100)
		} else {
			m.statuses[i].State = StateOffline
		}
		result = m.statuses[i]
	}
	persistErr := m.persistLocked()
	m.mu.Unlock()

	if persistErr != nil {
		return Status{}, persistErr
	}
	if success {
		m.notifier.Success(ctx, fmt.Sprintf("Connected to %s", cfg.Name))
	} else {
		m.notifier.Error(ctx, fmt.Sprintf("Could not connect to %s, check the credentials", cfg.Name))
	}
	slog.InfoContext(ctx, "Connection test finished",
		"id", id, "name", cfg.Name, "success", success)
	return result, nil
}

// Restart simulates a reboot: after the delay the server comes back online.
func (m *Manager) Restart(ctx context.Context, id string) (Status, error) {
	st, err := m.statusByID(id)
	if err != nil {
		return Status{}, err
	}

	m.notifier.Info(ctx, fmt.Sprintf("Restarting %s...", st.Name))
	if err := m.sleep(ctx, m.config.RestartDelay); err != nil {
		return Status{}, err
	}

	result, err := m.setState(id, func(s *Status) {
		s.State = StateOnline
		s.LastChecked = m.nowFn()
	})
	if err != nil {
		return Status{}, err
	}
	m.notifier.Success(ctx, fmt.Sprintf("%s restarted", st.Name))
	return result, nil
}

// Toggle flips the server between online and offline.
func (m *Manager) Toggle(ctx context.Context, id string) (Status, error) {
	st, err := m.statusByID(id)
	if err != nil {
		return Status{}, err
	}

	m.notifier.Info(ctx, fmt.Sprintf("Changing status of %s...", st.Name))
	if err := m.sleep(ctx, m.config.ToggleDelay); err != nil {
		return Status{}, err
	}

	result, err := m.setState(id, func(s *Status) {
		if s.State == StateOnline {
			s.State = StateOffline
		} else {
			s.State = StateOnline
		}
		s.LastChecked = m.nowFn()
	})
	if err != nil {
		return Status{}, err
	}
	m.notifier.Success(ctx, fmt.Sprintf("%s is now %s", st.Name, result.State))
	return result, nil
}

// RefreshAll re-rolls every status: each server goes offline three times out
// of ten, and usage numbers are regenerated either way.
func (m *Manager) RefreshAll(ctx context.Context) ([]Status, error) {
	m.mu.Lock()
	empty := len(m.configs) == 0
	m.mu.Unlock()
	if empty {
		m.notifier.Info(ctx, "No servers configured")
		return nil, nil
	}

	m.notifier.Info(ctx, "Refreshing all server statuses...")
	if err := m.sleep(ctx, m.config.RefreshDelay); err != nil {
		return nil, err
	}

	m.mu.Lock()
	now := m.nowFn()
	for i := range m.statuses {
		if m.rand.Float64() > 0.7 {
			m.statuses[i].State = StateOffline
		} else {
			m.statuses[i].State = StateOnline
		}
		m.statuses[i].CPUUsage = m.rand.IntN(100)
		m.statuses[i].RAMUsage = m.rand.IntN(100)
		m.statuses[i].DiskUsage = m.rand.IntN(100)
		m.statuses[i].LastChecked = now
	}
	result := append([]Status(nil), m.statuses...)
	err := m.persistLocked()
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	m.notifier.Success(ctx, "All server statuses refreshed")
	return result, nil
}

func (m *Manager) configByID(id string) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.configs {
		if c.ID == id {
			return c, nil
		}
	}
	return Config{}, ErrNotFound
}

func (m *Manager) statusByID(id string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.statuses {
		if s.ID == id {
			return s, nil
		}
	}
	return Status{}, ErrNotFound
}

func (m *Manager) setState(id string, apply func(*Status)) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.statuses {
		if m.statuses[i].ID == id {
			apply(&m.statuses[i])
			if err := m.persistLocked(); err != nil {
				return Status{}, err
			}
			return m.statuses[i], nil
		}
	}
	return Status{}, ErrNotFound
}

func (m *Manager) persistLocked() error {
	return m.store.Save(m.configs, m.statuses)
}

func deleteByID[T any](list []T, id string, key func(T) string) []T {
	out := list[:0]
	for _, item := range list {
		if key(item) != id {
			out = append(out, item)
		}
	}
	return out
}
