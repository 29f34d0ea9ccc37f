package discord

import (
	"sync"
	"time"
)

// userLimiter frena el doble-click en los botones: una acción por
// ventana por usuario. Cuando el mapa crece, barre las entradas ya
// vencidas de paso.
type userLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	win  time.Duration
}

func newUserLimiter(window time.Duration) *userLimiter {
	return &userLimiter{next: map[string]time.Time{}, win: window}
}

func (l *userLimiter) Allow(userID string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.next[userID]; ok && now.Before(until) {
		return false
	}
	if len(l.next) > 1024 {
		for uid, until := range l.next {
			if now.After(until) {
				delete(l.next, uid)
			}
		}
	}
	l.next[userID] = now.Add(l.win)
	return true
}
