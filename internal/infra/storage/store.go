package storage

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

const configCacheTTL = time.Minute

// Store envuelve los repos con el contrato "la memoria manda": los
// writes nunca fallan hacia el caller. Si la DB está caída se encolan
// (el último write por clave gana) y un ticker de reconexión los
// replaya una sola vez al volver. Sin DATABASE_URL corre memory-only,
// que es un modo soportado, no un error.
type Store struct {
	url string

	mu        sync.Mutex
	db        *sql.DB
	connected bool
	pending   []pendingWrite

	queues   *QueueRepo
	searches *SearchRepo
	configs  *GuildConfigRepo

	cfgCache map[string]cachedConfig
}

type opKind int

const (
	opSaveQueue opKind = iota
	opDeactivateQueue
	opSaveSearch
	opDeactivateSearch
)

type pendingWrite struct {
	kind   opKind
	key    string // "q:<queueID>" | "s:<userID>"
	queue  domain.Queue
	search domain.StandingSearch
}

type cachedConfig struct {
	cfg domain.GuildConfig
	at  time.Time
}

func NewStore(databaseURL string) *Store {
	return &Store{url: databaseURL, cfgCache: map[string]cachedConfig{}}
}

// Connect intenta abrir y migrar. Un fallo acá no es fatal: el ticker
// de Run lo va a reintentar.
func (s *Store) Connect(ctx context.Context) error {
	if s.url == "" {
		log.Println("ℹ️ sin DATABASE_URL: corriendo memory-only")
		return nil
	}
	db, err := Open(ctx, s.url)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return err
	}

	s.mu.Lock()
	s.db = db
	s.queues = NewQueueRepo(db)
	s.searches = NewSearchRepo(db)
	s.configs = NewGuildConfigRepo(db)
	s.connected = true
	s.mu.Unlock()
	return nil
}

// Run es el loop de reconexión: ping periódico y, en la transición
// caído→vivo, un resync one-shot del backlog.
func (s *Store) Run(ctx context.Context, every time.Duration) {
	if s.url == "" {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.heartbeat(ctx)
		}
	}
}

func (s *Store) heartbeat(ctx context.Context) {
	s.mu.Lock()
	db, wasConnected := s.db, s.connected
	s.mu.Unlock()

	if db == nil {
		if err := s.Connect(ctx); err != nil {
			return
		}
		log.Println("✅ store conectado")
		s.resync(ctx)
		return
	}

	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := db.PingContext(pctx)
	cancel()

	s.mu.Lock()
	s.connected = err == nil
	s.mu.Unlock()

	if err != nil {
		if wasConnected {
			log.Printf("⚠️ store caído, pasamos a memory-only: %v", err)
		}
		return
	}
	if !wasConnected {
		log.Println("✅ store de vuelta, resync del backlog")
		s.resync(ctx)
	}
}

// ---------- writes best-effort (nunca devuelven error) ----------

func (s *Store) SaveQueue(ctx context.Context, q domain.Queue) {
	w := pendingWrite{kind: opSaveQueue, key: "q:" + q.ID, queue: q}
	repo := s.queueRepo()
	if repo == nil {
		s.enqueue(w)
		return
	}
	if err := repo.Upsert(ctx, q); err != nil {
		log.Printf("⚠️ store: save queue %s: %v", q.ID, err)
		s.markDown(w)
	}
}

func (s *Store) DeactivateQueue(ctx context.Context, queueID string) {
	w := pendingWrite{kind: opDeactivateQueue, key: "q:" + queueID}
	repo := s.queueRepo()
	if repo == nil {
		s.enqueue(w)
		return
	}
	if err := repo.Deactivate(ctx, queueID); err != nil {
		log.Printf("⚠️ store: deactivate queue %s: %v", queueID, err)
		s.markDown(w)
	}
}

func (s *Store) SaveSearch(ctx context.Context, sr domain.StandingSearch) {
	w := pendingWrite{kind: opSaveSearch, key: "s:" + sr.UserID, search: sr}
	repo := s.searchRepo()
	if repo == nil {
		s.enqueue(w)
		return
	}
	if err := repo.Upsert(ctx, sr); err != nil {
		log.Printf("⚠️ store: save search %s: %v", sr.UserID, err)
		s.markDown(w)
	}
}

func (s *Store) DeactivateSearch(ctx context.Context, userID string) {
	w := pendingWrite{kind: opDeactivateSearch, key: "s:" + userID}
	repo := s.searchRepo()
	if repo == nil {
		s.enqueue(w)
		return
	}
	if err := repo.Deactivate(ctx, userID); err != nil {
		log.Printf("⚠️ store: deactivate search %s: %v", userID, err)
		s.markDown(w)
	}
}

// ---------- reads best-effort ----------

// LoadQueues para el boot. Caído o sin DB: lista vacía, sin drama.
func (s *Store) LoadQueues(ctx context.Context) []domain.Queue {
	repo := s.queueRepo()
	if repo == nil {
		return nil
	}
	out, err := repo.ListActive(ctx)
	if err != nil {
		log.Printf("⚠️ store: load queues: %v", err)
		return nil
	}
	return out
}

func (s *Store) LoadSearches(ctx context.Context) []domain.StandingSearch {
	repo := s.searchRepo()
	if repo == nil {
		return nil
	}
	out, err := repo.ListActive(ctx)
	if err != nil {
		log.Printf("⚠️ store: load searches: %v", err)
		return nil
	}
	return out
}

// GuildConfig con cache corto; caído, sirve defaults (las operaciones
// nunca se bloquean por el store).
func (s *Store) GuildConfig(ctx context.Context, guildID string) domain.GuildConfig {
	s.mu.Lock()
	if c, ok := s.cfgCache[guildID]; ok && time.Since(c.at) < configCacheTTL {
		s.mu.Unlock()
		return c.cfg
	}
	repo := s.configs
	connected := s.connected
	s.mu.Unlock()

	if repo == nil || !connected {
		return domain.DefaultGuildConfig(guildID)
	}
	cfg, err := repo.Get(ctx, guildID)
	if err != nil {
		log.Printf("⚠️ store: guild config %s: %v", guildID, err)
		return domain.DefaultGuildConfig(guildID)
	}
	s.mu.Lock()
	s.cfgCache[guildID] = cachedConfig{cfg: cfg, at: time.Now()}
	s.mu.Unlock()
	return cfg
}

// UIRepo expone el repo del tablero (lo usa el adapter de discord
// directo; no forma parte del contrato best-effort del core).
func (s *Store) UIRepo() *UIRepo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return NewUIRepo(s.db)
}

// ---------- internals ----------

func (s *Store) queueRepo() *QueueRepo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	return s.queues
}

func (s *Store) searchRepo() *SearchRepo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	return s.searches
}

// enqueue guarda el write para el resync. Por clave queda solo el
// último: un save viejo no tiene sentido si después hubo deactivate.
func (s *Store) enqueue(w pendingWrite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p.key == w.key {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	s.pending = append(s.pending, w)
}

func (s *Store) markDown(w pendingWrite) {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	s.enqueue(w)
}

// resync replaya el backlog en orden de inserción y lo limpia. Si un
// write vuelve a fallar, vuelve al backlog y esperamos al próximo tick.
func (s *Store) resync(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	queues, searches := s.queues, s.searches
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	log.Printf("store: replayando %d writes pendientes", len(batch))
	for i, w := range batch {
		var err error
		switch w.kind {
		case opSaveQueue:
			err = queues.Upsert(ctx, w.queue)
		case opDeactivateQueue:
			err = queues.Deactivate(ctx, w.key[len("q:"):])
		case opSaveSearch:
			err = searches.Upsert(ctx, w.search)
		case opDeactivateSearch:
			err = searches.Deactivate(ctx, w.key[len("s:"):])
		}
		if err != nil {
			// lo que no entró vuelve al frente del backlog, en orden
			log.Printf("⚠️ store: resync %s: %v", w.key, err)
			s.mu.Lock()
			s.connected = false
			s.pending = append(append([]pendingWrite(nil), batch[i:]...), s.pending...)
			s.mu.Unlock()
			return
		}
	}
}
