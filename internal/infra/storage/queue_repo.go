package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

var ErrNotFound = errors.New("not found")

type QueueRepo struct{ db *sql.DB }

func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{db: db} }

// Upsert: la fila refleja el último estado en memoria. Los game roles
// no se persisten (viven y mueren con el proceso).
func (r *QueueRepo) Upsert(ctx context.Context, q domain.Queue) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO lfg_queues
  (queue_id, guild_id, owner_id, game, mode, players_needed, players,
   availability_hours, description, discord_role_id, created_at, ends_at, is_active)
VALUES
  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,TRUE)
ON CONFLICT (queue_id) DO UPDATE SET
  players         = EXCLUDED.players,
  description     = EXCLUDED.description,
  discord_role_id = EXCLUDED.discord_role_id,
  ends_at         = EXCLUDED.ends_at,
  is_active       = TRUE
`,
		q.ID, q.GuildID, q.OwnerID, q.Game, q.Mode, q.PlayersNeeded, pq.Array(q.Members),
		int(q.EndsAt.Sub(q.CreatedAt).Hours()), q.Description, q.DiscordRoleID, q.CreatedAt, q.EndsAt,
	)
	return err
}

func (r *QueueRepo) Deactivate(ctx context.Context, queueID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE lfg_queues
   SET is_active = FALSE
 WHERE queue_id = $1
`, queueID)
	return err
}

// ListActive carga las colas vivas al arrancar el proceso.
func (r *QueueRepo) ListActive(ctx context.Context) ([]domain.Queue, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT queue_id, guild_id, owner_id, game, mode, players_needed, players,
       description, discord_role_id, created_at, ends_at
  FROM lfg_queues
 WHERE is_active
 ORDER BY created_at ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Queue
	for rows.Next() {
		var q domain.Queue
		if err := rows.Scan(&q.ID, &q.GuildID, &q.OwnerID, &q.Game, &q.Mode, &q.PlayersNeeded,
			pq.Array(&q.Members), &q.Description, &q.DiscordRoleID, &q.CreatedAt, &q.EndsAt); err != nil {
			return nil, err
		}
		q.MemberRoles = map[string]string{}
		out = append(out, q)
	}
	return out, rows.Err()
}
