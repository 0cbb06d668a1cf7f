package cart

import (
	"sync"

	"rentgear/internal/config"
	"rentgear/internal/domain"
	"rentgear/internal/kvstore"
)

// Manager opens one Store per cart key, lazily. Two requests carrying
// the same key share one store; separate processes sharing the backing
// kvstore converge through the stores' external watches.
type Manager struct {
	cfg      *config.Config
	catalog  CatalogReader
	kv       kvstore.Store
	sched    Scheduler
	onChange func(cartID string, cart domain.Cart)

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(
	cfg *config.Config,
	catalog CatalogReader,
	kv kvstore.Store,
	sched Scheduler,
	onChange func(cartID string, cart domain.Cart),
) *Manager {
	return &Manager{
		cfg:      cfg,
		catalog:  catalog,
		kv:       kv,
		sched:    sched,
		onChange: onChange,
		stores:   make(map[string]*Store),
	}
}

// Store returns the live store for cartID, opening it on first use.
func (m *Manager) Store(cartID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[cartID]; ok {
		return s
	}

	persist := NewPersistence(m.kv, recordKey(cartID))
	s := NewStore(m.cfg, m.catalog, persist, m.sched)
	if m.onChange != nil {
		id := cartID
		s.Subscribe(func(c domain.Cart) { m.onChange(id, c) })
	}

	m.stores[cartID] = s
	return s
}

// Close tears down every open store.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.stores {
		s.Close()
		delete(m.stores, id)
	}
}

func recordKey(cartID string) string {
	return "cart:" + cartID
}
