package service

import (
	"sort"
	"time"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

// Cuánta vida le queda a una cola "apretada" por la policy expire.
const squeezeWindow = 5 * time.Minute

// applyLimitLocked corre al inicio de Create, con el lock tomado y
// antes de construir nada. Con policy block rechaza; con expire nunca
// rechaza: paga con la vida de las colas más viejas.
//
//   - overflow >= 3: fuerza el cierre inmediato de las `overflow` más
//     viejas (mismo teardown de siempre).
//   - overflow 1..2: les acorta EndsAt a now+5m (solo si eso es antes
//     de lo que ya tenían) y reprograma el timer.
//
// Devuelve lo cerrado y lo acortado (clones) para que Create haga el
// I/O lento después de soltar el lock.
func (r *Registry) applyLimitLocked(cfg domain.GuildConfig, guildID string, now time.Time) (closed []*domain.Queue, squeezed []domain.Queue, err error) {
	var own []*domain.Queue
	for _, q := range r.queues {
		if q.GuildID == guildID {
			own = append(own, q)
		}
	}
	if len(own) < cfg.MaxQueues {
		return nil, nil, nil
	}
	if cfg.QueueLimitMode != domain.LimitExpire {
		return nil, nil, ErrQueueLimitReached
	}

	// +1 por la cola que está por crearse
	overflow := len(own) - cfg.MaxQueues + 1
	sort.Slice(own, func(i, j int) bool { return own[i].CreatedAt.Before(own[j].CreatedAt) })

	if overflow >= 3 {
		for _, q := range own[:overflow] {
			if dead := r.teardownLocked(q.ID); dead != nil {
				closed = append(closed, dead)
			}
		}
		return closed, nil, nil
	}

	deadline := now.Add(squeezeWindow)
	for _, q := range own[:overflow] {
		if !deadline.Before(q.EndsAt) {
			continue // ya vencía antes, no tocamos
		}
		q.EndsAt = deadline
		r.scheduleExpiryLocked(q.ID, squeezeWindow)
		squeezed = append(squeezed, q.Clone())
	}
	return nil, squeezed, nil
}
