package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

const searchMaxHours = 24

// SearchService es el registro de búsquedas en pie ("avisame cuando
// armen X"). A lo sumo una por user en todo el proceso. No auto-mete
// a nadie en una cola: notifica y el user confirma con JoinFromSearch.
type SearchService struct {
	mu     sync.Mutex
	byUser map[string]*domain.StandingSearch
	timers map[string]*time.Timer

	store  SearchStore
	notify Notifier
}

func NewSearchService(store SearchStore, notify Notifier) *SearchService {
	return &SearchService{
		byUser: map[string]*domain.StandingSearch{},
		timers: map[string]*time.Timer{},
		store:  store,
		notify: notify,
	}
}

func (s *SearchService) Register(ctx context.Context, userID, guildID, game, mode string, hours int) (domain.StandingSearch, error) {
	game = strings.ToLower(strings.TrimSpace(game))
	mode = strings.ToLower(strings.TrimSpace(mode))
	if len(game) < 2 {
		return domain.StandingSearch{}, ErrInvalidName
	}
	if hours < 1 || hours > searchMaxHours {
		return domain.StandingSearch{}, ErrOutOfRange
	}

	now := time.Now()

	s.mu.Lock()
	if prev, ok := s.byUser[userID]; ok {
		if !prev.Expired(now) {
			s.mu.Unlock()
			return domain.StandingSearch{}, ErrSearchActive
		}
		s.evictLocked(userID) // venció pero el timer no llegó a correr
	}
	search := &domain.StandingSearch{
		UserID:    userID,
		GuildID:   guildID,
		Game:      game,
		Mode:      mode,
		Duration:  time.Duration(hours) * time.Hour,
		StartedAt: now,
		EndsAt:    now.Add(time.Duration(hours) * time.Hour),
	}
	s.byUser[userID] = search
	s.timers[userID] = time.AfterFunc(search.Duration, func() { s.expire(userID) })
	out := *search
	s.mu.Unlock()

	s.store.SaveSearch(ctx, out)
	return out, nil
}

func (s *SearchService) Cancel(ctx context.Context, userID string) error {
	s.mu.Lock()
	_, ok := s.byUser[userID]
	if ok {
		s.evictLocked(userID)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.store.DeactivateSearch(ctx, userID)
	return nil
}

// Consume borra la búsqueda tras un join exitoso desde un match (un
// join que entra siempre consume la búsqueda). No-op si no había.
func (s *SearchService) Consume(ctx context.Context, userID string) {
	s.mu.Lock()
	_, ok := s.byUser[userID]
	if ok {
		s.evictLocked(userID)
	}
	s.mu.Unlock()
	if ok {
		s.store.DeactivateSearch(ctx, userID)
	}
}

// Search devuelve la búsqueda activa del user, si tiene.
func (s *SearchService) Search(userID string) (domain.StandingSearch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.byUser[userID]
	if !ok {
		return domain.StandingSearch{}, false
	}
	return *sr, true
}

// OnQueueCreated es el hook que corre el registry después de cada
// creación. Barre vencidas de paso (lazy, además del timer).
func (s *SearchService) OnQueueCreated(q domain.Queue) {
	now := time.Now()
	var matched []domain.StandingSearch
	var expired []string

	s.mu.Lock()
	for uid, sr := range s.byUser {
		if sr.Expired(now) {
			expired = append(expired, uid)
			continue
		}
		if q.HasMember(uid) {
			continue // ya está adentro (p.ej. el owner)
		}
		if sr.Matches(&q) {
			matched = append(matched, *sr)
		}
	}
	for _, uid := range expired {
		s.evictLocked(uid)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, uid := range expired {
		s.store.DeactivateSearch(ctx, uid)
	}
	for _, sr := range matched {
		s.notify.SearchMatched(sr, q)
	}
}

// Restore siembra las búsquedas desde el store al arrancar.
func (s *SearchService) Restore(ctx context.Context, searches []domain.StandingSearch) {
	now := time.Now()
	var dead []string

	s.mu.Lock()
	for i := range searches {
		sr := searches[i]
		if sr.Expired(now) {
			dead = append(dead, sr.UserID)
			continue
		}
		s.byUser[sr.UserID] = &sr
		uid := sr.UserID
		s.timers[uid] = time.AfterFunc(sr.EndsAt.Sub(now), func() { s.expire(uid) })
	}
	s.mu.Unlock()

	for _, uid := range dead {
		s.store.DeactivateSearch(ctx, uid)
	}
}

// ---------- internals ----------

func (s *SearchService) expire(userID string) {
	s.mu.Lock()
	sr, ok := s.byUser[userID]
	if ok && sr.Expired(time.Now()) {
		s.evictLocked(userID)
	} else {
		ok = false // la re-registraron; ese timer viejo no manda
	}
	s.mu.Unlock()
	if ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.store.DeactivateSearch(ctx, userID)
	}
}

func (s *SearchService) evictLocked(userID string) {
	delete(s.byUser, userID)
	if t, ok := s.timers[userID]; ok {
		t.Stop()
		delete(s.timers, userID)
	}
}
