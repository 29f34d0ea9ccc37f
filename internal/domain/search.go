package domain

import (
	"strings"
	"time"
)

// StandingSearch: "avisame cuando alguien arme <juego>". Una por user.
type StandingSearch struct {
	UserID    string
	GuildID   string
	Game      string // normalizado a minúsculas
	Mode      string // idem; vacío = cualquier modo
	Duration  time.Duration
	StartedAt time.Time
	EndsAt    time.Time
}

func (s *StandingSearch) Expired(now time.Time) bool { return now.After(s.EndsAt) }

// Matches aplica la regla de matching difuso: mismo guild, substring
// bidireccional en el juego, y modo compatible (si la búsqueda pide
// modo y la cola no tiene, no hay match).
func (s *StandingSearch) Matches(q *Queue) bool {
	if s.GuildID != q.GuildID {
		return false
	}
	game := strings.ToLower(q.Game)
	if !strings.Contains(game, s.Game) && !strings.Contains(s.Game, game) {
		return false
	}
	if s.Mode == "" {
		return true
	}
	if q.Mode == "" {
		return false
	}
	mode := strings.ToLower(q.Mode)
	return strings.Contains(mode, s.Mode) || strings.Contains(s.Mode, mode)
}
