package table

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pefman/warband-tracker/internal/api"
	"github.com/pefman/warband-tracker/internal/game"
	"github.com/pefman/warband-tracker/internal/models"
	"github.com/pefman/warband-tracker/internal/roster"
	"github.com/pefman/warband-tracker/internal/stats"
	"github.com/rs/zerolog"
)

// Reporter stores finished battles. *api.Client is one.
type Reporter interface {
	RecordBattle(ctx context.Context, rec api.BattleRecord) (models.Battle, error)
}

// PublicSource resolves share codes. *api.Client and *roster.Store are both one.
type PublicSource interface {
	PublicRoster(ctx context.Context, code string) (models.Roster, error)
}

type Config struct {
	// Rosters serves stored warbands. If it is also a PublicSource, share codes work too.
	Rosters roster.Provider
	// Reporter, when set, receives every ended game that has stored warbands in it.
	Reporter Reporter
	Board    *stats.Board
	Options  []game.Option
	Log      zerolog.Logger
}

// Manager owns the open tables.
type Manager struct {
	cfg      Config
	log      zerolog.Logger
	metrics  *metrics
	commands map[string]handlerFunc
	reports  sync.WaitGroup

	mu     sync.RWMutex
	tables map[string]*Table
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Board == nil {
		cfg.Board = stats.NewBoard()
	}
	m := &Manager{
		cfg:      cfg,
		log:      cfg.Log,
		commands: commands(),
		tables:   map[string]*Table{},
	}
	var err error
	m.metrics, err = newMetrics(m.count)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}

// Board is the daily leaderboard the tables feed.
func (m *Manager) Board() *stats.Board { return m.cfg.Board }

// Create opens a new empty table.
func (m *Manager) Create(name string) *Table {
	id := uuid.NewString()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Table " + id[:8]
	}
	t := &Table{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		m:         m,
		log:       m.log.With().Str("table", id).Logger(),
		tracker:   game.NewTracker(m.cfg.Options...),
		temp:      roster.NewTempRoster(),
		peers:     map[*Peer]struct{}{},
	}
	m.mu.Lock()
	m.tables[id] = t
	m.mu.Unlock()
	t.log.Info().Str("name", name).Msg("table: created")
	return t
}

func (m *Manager) Get(id string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	return t, ok
}

// List returns every table, oldest first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove closes a table and disconnects everyone at it.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	t, ok := m.tables[id]
	delete(m.tables, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	t.close()
	m.log.Info().Str("table", id).Msg("table: removed")
	return true
}

// Wait blocks until battle reports already handed off have finished.
func (m *Manager) Wait() { m.reports.Wait() }
