package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

type SearchRepo struct{ db *sql.DB }

func NewSearchRepo(db *sql.DB) *SearchRepo { return &SearchRepo{db: db} }

// Upsert por user_id: una búsqueda por persona, la nueva pisa.
func (r *SearchRepo) Upsert(ctx context.Context, s domain.StandingSearch) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO lfg_searches
  (user_id, guild_id, game, mode, duration_hours, started_at, ends_at, is_active)
VALUES
  ($1,$2,$3,$4,$5,$6,$7,TRUE)
ON CONFLICT (user_id) DO UPDATE SET
  guild_id       = EXCLUDED.guild_id,
  game           = EXCLUDED.game,
  mode           = EXCLUDED.mode,
  duration_hours = EXCLUDED.duration_hours,
  started_at     = EXCLUDED.started_at,
  ends_at        = EXCLUDED.ends_at,
  is_active      = TRUE
`,
		s.UserID, s.GuildID, s.Game, s.Mode, int(s.Duration.Hours()), s.StartedAt, s.EndsAt,
	)
	return err
}

func (r *SearchRepo) Deactivate(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE lfg_searches
   SET is_active = FALSE
 WHERE user_id = $1
`, userID)
	return err
}

func (r *SearchRepo) ListActive(ctx context.Context) ([]domain.StandingSearch, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id, guild_id, game, mode, duration_hours, started_at, ends_at
  FROM lfg_searches
 WHERE is_active
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StandingSearch
	for rows.Next() {
		var s domain.StandingSearch
		var hours int
		if err := rows.Scan(&s.UserID, &s.GuildID, &s.Game, &s.Mode, &hours, &s.StartedAt, &s.EndsAt); err != nil {
			return nil, err
		}
		s.Duration = time.Duration(hours) * time.Hour
		out = append(out, s)
	}
	return out, rows.Err()
}
