package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

// Fakes compartidos por los tests del paquete. Registran llamadas y
// nada más; el contrato best-effort hace que no tengan errores que
// simular hacia el core.

type fakeStore struct {
	mu           sync.Mutex
	savedQueues  []domain.Queue
	deactivatedQ []string
	savedSearch  []domain.StandingSearch
	deactivatedS []string
}

func (f *fakeStore) SaveQueue(_ context.Context, q domain.Queue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedQueues = append(f.savedQueues, q)
}

func (f *fakeStore) DeactivateQueue(_ context.Context, queueID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivatedQ = append(f.deactivatedQ, queueID)
}

func (f *fakeStore) SaveSearch(_ context.Context, s domain.StandingSearch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedSearch = append(f.savedSearch, s)
}

func (f *fakeStore) DeactivateSearch(_ context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivatedS = append(f.deactivatedS, userID)
}

func (f *fakeStore) deactivatedQueues() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deactivatedQ...)
}

func (f *fakeStore) deactivatedSearches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deactivatedS...)
}

type closedEvent struct {
	queue  domain.Queue
	reason CloseReason
}

type matchEvent struct {
	search domain.StandingSearch
	queue  domain.Queue
}

type fakeNotifier struct {
	mu          sync.Mutex
	full        []domain.Queue
	closed      []closedEvent
	accelerated []domain.Queue
	matched     []matchEvent
}

func (f *fakeNotifier) QueueFull(q domain.Queue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.full = append(f.full, q)
}

func (f *fakeNotifier) QueueClosed(q domain.Queue, reason CloseReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, closedEvent{queue: q, reason: reason})
}

func (f *fakeNotifier) ExpiryAccelerated(q domain.Queue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accelerated = append(f.accelerated, q)
}

func (f *fakeNotifier) SearchMatched(s domain.StandingSearch, q domain.Queue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matched = append(f.matched, matchEvent{search: s, queue: q})
}

func (f *fakeNotifier) fullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.full)
}

func (f *fakeNotifier) closedEvents() []closedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]closedEvent(nil), f.closed...)
}

func (f *fakeNotifier) matchedEvents() []matchEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]matchEvent(nil), f.matched...)
}

func (f *fakeNotifier) acceleratedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accelerated)
}

type fakeRoleSync struct {
	mu      sync.Mutex
	n       int
	granted map[string][]string // roleID -> userIDs
	deleted []string
}

func (f *fakeRoleSync) CreateQueueRole(guildID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	if f.granted == nil {
		f.granted = map[string][]string{}
	}
	return fmt.Sprintf("role-%d", f.n), nil
}

func (f *fakeRoleSync) Grant(_, userID, roleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.granted[roleID] = append(f.granted[roleID], userID)
}

func (f *fakeRoleSync) Revoke(_, userID, roleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := f.granted[roleID]
	for i, u := range users {
		if u == userID {
			f.granted[roleID] = append(users[:i], users[i+1:]...)
			break
		}
	}
}

func (f *fakeRoleSync) DeleteQueueRole(_, roleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, roleID)
}

type fixture struct {
	registry *Registry
	searches *SearchService
	store    *fakeStore
	notify   *fakeNotifier
	roles    *fakeRoleSync
}

func newFixture(maxLifetime time.Duration) *fixture {
	st := &fakeStore{}
	nt := &fakeNotifier{}
	rs := &fakeRoleSync{}
	searches := NewSearchService(st, nt)
	return &fixture{
		registry: NewRegistry(st, nt, rs, searches, maxLifetime),
		searches: searches,
		store:    st,
		notify:   nt,
		roles:    rs,
	}
}

func testConfig(guildID string) domain.GuildConfig {
	cfg := domain.DefaultGuildConfig(guildID)
	cfg.MaxQueues = 5
	cfg.MaxPlayers = 10
	cfg.MaxAvailability = 12
	return cfg
}

func mustCreate(f *fixture, owner, game string, needed int) *domain.Queue {
	q, err := f.registry.Create(context.Background(), CreateParams{
		GuildID:           "g1",
		OwnerID:           owner,
		Game:              game,
		PlayersNeeded:     needed,
		AvailabilityHours: 2,
	}, testConfig("g1"))
	if err != nil {
		panic(err)
	}
	return q
}
