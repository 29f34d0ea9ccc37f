package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

// Registry es la autoridad en memoria sobre las colas activas. Toda
// mutación sigue el patrón: validar → mutar bajo lock → I/O lento
// después del commit (store / roles de Discord / notificaciones).
// Así dos clicks "concurrentes" se revalidan en el momento del commit
// y nunca partimos una mutación en dos.
type Registry struct {
	mu     sync.Mutex
	queues map[string]*domain.Queue
	byUser map[string]string // userID -> queueID; a lo sumo una cola por user
	timers map[string]*time.Timer

	store    QueueStore
	notify   Notifier
	roles    RoleSync
	searches *SearchService

	// techo duro de vida de una cola, independiente de la
	// disponibilidad que pida el usuario (default 4h)
	maxLifetime time.Duration
}

func NewRegistry(store QueueStore, notify Notifier, roles RoleSync, searches *SearchService, maxLifetime time.Duration) *Registry {
	if maxLifetime <= 0 {
		maxLifetime = 4 * time.Hour
	}
	return &Registry{
		queues:      map[string]*domain.Queue{},
		byUser:      map[string]string{},
		timers:      map[string]*time.Timer{},
		store:       store,
		notify:      notify,
		roles:       roles,
		searches:    searches,
		maxLifetime: maxLifetime,
	}
}

type CreateParams struct {
	GuildID           string
	OwnerID           string
	Game              string
	Mode              string
	Description       string
	PlayersNeeded     int
	AvailabilityHours int
}

type JoinResult struct {
	Queue domain.Queue
	// true exactamente una vez: en el join que completa el cupo.
	// La cola sigue abierta igual (llena ≠ cerrada).
	BecameFull bool
}

// Create valida, aplica la policy de límite del guild y registra la
// cola. Las rechazadas/acortadas por la policy se resuelven acá mismo.
func (r *Registry) Create(ctx context.Context, p CreateParams, cfg domain.GuildConfig) (*domain.Queue, error) {
	p.Game = strings.TrimSpace(p.Game)
	p.Mode = strings.TrimSpace(p.Mode)
	if len(p.Game) < 2 {
		return nil, ErrInvalidName
	}
	if p.PlayersNeeded < 2 || p.PlayersNeeded > cfg.MaxPlayers {
		return nil, ErrOutOfRange
	}
	if p.AvailabilityHours < 1 || p.AvailabilityHours > cfg.MaxAvailability {
		return nil, ErrOutOfRange
	}

	now := time.Now()

	r.mu.Lock()
	if _, taken := r.byUser[p.OwnerID]; taken {
		r.mu.Unlock()
		return nil, ErrAlreadyInQueue
	}
	closed, squeezed, err := r.applyLimitLocked(cfg, p.GuildID, now)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	q := &domain.Queue{
		ID:            domain.QueueID(p.GuildID, p.OwnerID, now),
		GuildID:       p.GuildID,
		OwnerID:       p.OwnerID,
		Game:          p.Game,
		Mode:          p.Mode,
		Description:   strings.TrimSpace(p.Description),
		PlayersNeeded: p.PlayersNeeded,
		Members:       []string{p.OwnerID},
		MemberRoles:   map[string]string{},
		CreatedAt:     now,
		EndsAt:        now.Add(time.Duration(p.AvailabilityHours) * time.Hour),
		MaxEndsAt:     now.Add(r.maxLifetime),
	}
	if q.EndsAt.After(q.MaxEndsAt) {
		q.EndsAt = q.MaxEndsAt
	}
	r.queues[q.ID] = q
	r.byUser[p.OwnerID] = q.ID
	r.scheduleExpiryLocked(q.ID, q.EndsAt.Sub(now))
	snap := q.Clone()
	r.mu.Unlock()

	// I/O lento recién después del commit en memoria
	for _, old := range closed {
		r.finalize(old, CloseLimit)
	}
	for _, sq := range squeezed {
		r.store.SaveQueue(ctx, sq)
		r.notify.ExpiryAccelerated(sq)
	}

	if roleID, err := r.roles.CreateQueueRole(p.GuildID, p.Game); err != nil {
		log.Printf("⚠️ queue role for %s: %v", q.ID, err)
	} else {
		r.adoptQueueRole(p.GuildID, q.ID, roleID)
		r.roles.Grant(p.GuildID, p.OwnerID, roleID)
		snap.DiscordRoleID = roleID
	}

	r.store.SaveQueue(ctx, snap)
	r.searches.OnQueueCreated(snap)
	return &snap, nil
}

// Join agrega un miembro. Si el requirement global es "required" y
// ningún rol tiene cupo, el join directo se rechaza: hay que pasar
// por JoinWithRole (membresía + rol en un solo commit).
func (r *Registry) Join(ctx context.Context, queueID, userID string) (JoinResult, error) {
	r.mu.Lock()
	q, ok := r.queues[queueID]
	if !ok {
		r.mu.Unlock()
		return JoinResult{}, ErrNotFound
	}
	if _, taken := r.byUser[userID]; taken {
		r.mu.Unlock()
		return JoinResult{}, ErrAlreadyInQueue
	}
	if q.IsFull() {
		r.mu.Unlock()
		return JoinResult{}, ErrFull
	}
	if q.RoleRequirement == domain.RoleRequirementRequired && !q.HasRoleCapacity() {
		r.mu.Unlock()
		return JoinResult{}, ErrNoRoleCapacity
	}
	q.Members = append(q.Members, userID)
	r.byUser[userID] = q.ID
	res := JoinResult{Queue: q.Clone(), BecameFull: q.IsFull()}
	r.mu.Unlock()

	r.store.SaveQueue(ctx, res.Queue)
	if res.Queue.DiscordRoleID != "" {
		r.roles.Grant(res.Queue.GuildID, userID, res.Queue.DiscordRoleID)
	}
	if res.BecameFull {
		r.notify.QueueFull(res.Queue)
	}
	return res, nil
}

// JoinFromSearch es el camino de confirmación del notifier: mismo
// join de siempre, y si entra, la búsqueda se consume.
func (r *Registry) JoinFromSearch(ctx context.Context, queueID, userID string) (JoinResult, error) {
	res, err := r.Join(ctx, queueID, userID)
	if err != nil {
		return res, err
	}
	r.searches.Consume(ctx, userID)
	return res, nil
}

func (r *Registry) Leave(ctx context.Context, queueID, userID string) error {
	r.mu.Lock()
	q, ok := r.queues[queueID]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if q.OwnerID == userID {
		r.mu.Unlock()
		return ErrOwnerCannotLeave // el owner cierra, no se va
	}
	if !q.HasMember(userID) {
		r.mu.Unlock()
		return ErrNotMember
	}
	removeString(&q.Members, userID)
	delete(r.byUser, userID)
	r.unassignRoleLocked(q, userID)
	snap := q.Clone()
	r.mu.Unlock()

	r.store.SaveQueue(ctx, snap)
	if snap.DiscordRoleID != "" {
		r.roles.Revoke(snap.GuildID, userID, snap.DiscordRoleID)
	}
	return nil
}

// Close es idempotente: cerrar una cola ya cerrada es no-op, no error
// (el timer de expiry y un close manual pueden correr a la par).
// La autorización (owner/admin/mod) es del boundary, no de acá.
func (r *Registry) Close(ctx context.Context, queueID string) {
	r.mu.Lock()
	q := r.teardownLocked(queueID)
	r.mu.Unlock()
	if q == nil {
		return
	}
	r.finalize(q, CloseManual)
}

// CloseInGuild es el cierre administrativo por id: solo cierra si la
// cola pertenece al guild desde donde vino la orden. Los permisos de
// un guild no valen en otro, aunque el id sea correcto.
func (r *Registry) CloseInGuild(ctx context.Context, guildID, queueID string) error {
	r.mu.Lock()
	q, ok := r.queues[queueID]
	if !ok || q.GuildID != guildID {
		r.mu.Unlock()
		return ErrNotFound
	}
	q = r.teardownLocked(queueID)
	r.mu.Unlock()
	r.finalize(q, CloseManual)
	return nil
}

// Describe actualiza el texto libre de la cola (solo owner, lo
// verifica el boundary).
func (r *Registry) Describe(ctx context.Context, queueID, text string) error {
	r.mu.Lock()
	q, ok := r.queues[queueID]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	q.Description = strings.TrimSpace(text)
	snap := q.Clone()
	r.mu.Unlock()

	r.store.SaveQueue(ctx, snap)
	return nil
}

// Queue devuelve un clon de la cola, si existe.
func (r *Registry) Queue(queueID string) (domain.Queue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[queueID]
	if !ok {
		return domain.Queue{}, false
	}
	return q.Clone(), true
}

// QueueOf devuelve la cola donde está el user (índice inverso).
func (r *Registry) QueueOf(userID string) (domain.Queue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUser[userID]
	if !ok {
		return domain.Queue{}, false
	}
	return r.queues[id].Clone(), true
}

// GuildQueues lista las colas del guild, más vieja primero.
func (r *Registry) GuildQueues(guildID string) []domain.Queue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.guildQueuesLocked(guildID)
}

// Restore siembra el registry desde el store al arrancar. Lo ya
// vencido se cierra en el acto.
func (r *Registry) Restore(ctx context.Context, queues []domain.Queue) {
	now := time.Now()
	var dead []*domain.Queue

	r.mu.Lock()
	for i := range queues {
		q := queues[i]
		c := q.Clone()
		if c.MemberRoles == nil {
			c.MemberRoles = map[string]string{}
		}
		// la fila no guarda el techo duro; se recalcula desde la
		// creación y EndsAt se vuelve a acotar por si cambió la config
		if c.MaxEndsAt.IsZero() {
			c.MaxEndsAt = c.CreatedAt.Add(r.maxLifetime)
		}
		if c.EndsAt.After(c.MaxEndsAt) {
			c.EndsAt = c.MaxEndsAt
		}
		if !now.Before(c.EndsAt) {
			dead = append(dead, &c)
			continue
		}
		r.queues[c.ID] = &c
		for _, m := range c.Members {
			r.byUser[m] = c.ID
		}
		r.scheduleExpiryLocked(c.ID, c.EndsAt.Sub(now))
	}
	n := len(r.queues)
	r.mu.Unlock()

	for _, q := range dead {
		r.finalize(q, CloseExpired)
	}
	log.Printf("✅ registry restaurado: %d colas activas, %d vencidas", n, len(dead))
}

// ---------- internals ----------

// teardownLocked saca la cola de memoria. Idempotente por diseño de
// map: si el id ya no está, devuelve nil y no pasa nada.
func (r *Registry) teardownLocked(queueID string) *domain.Queue {
	q, ok := r.queues[queueID]
	if !ok {
		return nil
	}
	delete(r.queues, queueID)
	for _, m := range q.Members {
		if r.byUser[m] == queueID {
			delete(r.byUser, m)
		}
	}
	if t, ok := r.timers[queueID]; ok {
		t.Stop()
		delete(r.timers, queueID)
	}
	return q
}

// finalize hace el I/O post-teardown: marcar inactiva la fila,
// soltar el rol de Discord y avisar. Nada de esto puede fallar "hacia"
// el caller.
func (r *Registry) finalize(q *domain.Queue, reason CloseReason) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.store.DeactivateQueue(ctx, q.ID)
	if q.DiscordRoleID != "" {
		r.roles.DeleteQueueRole(q.GuildID, q.DiscordRoleID)
	}
	r.notify.QueueClosed(q.Clone(), reason)
}

// scheduleExpiryLocked (re)arma el timer de expiry de la cola. El
// anterior se cancela para no correr un doble teardown.
func (r *Registry) scheduleExpiryLocked(queueID string, d time.Duration) {
	if t, ok := r.timers[queueID]; ok {
		t.Stop()
	}
	if d < 0 {
		d = 0
	}
	r.timers[queueID] = time.AfterFunc(d, func() { r.expire(queueID) })
}

func (r *Registry) expire(queueID string) {
	r.mu.Lock()
	q := r.teardownLocked(queueID)
	r.mu.Unlock()
	if q == nil {
		return // ya la cerró otro camino
	}
	r.finalize(q, CloseExpired)
}

// adoptQueueRole guarda el rol de Discord recién creado en la cola.
// Si la cola murió en el medio, el rol quedó huérfano: se borra acá.
func (r *Registry) adoptQueueRole(guildID, queueID, roleID string) {
	r.mu.Lock()
	q, ok := r.queues[queueID]
	if ok {
		q.DiscordRoleID = roleID
	}
	r.mu.Unlock()
	if !ok {
		r.roles.DeleteQueueRole(guildID, roleID)
	}
}

func (r *Registry) guildQueuesLocked(guildID string) []domain.Queue {
	var out []domain.Queue
	for _, q := range r.queues {
		if q.GuildID == guildID {
			out = append(out, q.Clone())
		}
	}
	sortQueuesByAge(out)
	return out
}

func removeString(ss *[]string, v string) {
	s := *ss
	for i, x := range s {
		if x == v {
			*ss = append(s[:i], s[i+1:]...)
			return
		}
	}
}

func sortQueuesByAge(qs []domain.Queue) {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].CreatedAt.Before(qs[j].CreatedAt) })
}
