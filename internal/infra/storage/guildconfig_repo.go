package storage

import (
	"context"
	"database/sql"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

type GuildConfigRepo struct{ db *sql.DB }

func NewGuildConfigRepo(db *sql.DB) *GuildConfigRepo { return &GuildConfigRepo{db: db} }

// Get devuelve la config del guild; si no hay fila, crea la default
// (mismo truco que las policies: el primer read la materializa).
func (r *GuildConfigRepo) Get(ctx context.Context, guildID string) (domain.GuildConfig, error) {
	var c domain.GuildConfig
	var mode string
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, system_type, queues_channel_id, category_id, max_queues,
       max_players, max_availability_hours, allow_custom_queues, queue_limit_behavior
  FROM guild_configs
 WHERE guild_id = $1
`, guildID).Scan(
		&c.GuildID, &c.SystemType, &c.QueuesChannelID, &c.CategoryID, &c.MaxQueues,
		&c.MaxPlayers, &c.MaxAvailability, &c.AllowCustomQueues, &mode,
	)
	if err == sql.ErrNoRows {
		def := domain.DefaultGuildConfig(guildID)
		_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_configs
  (guild_id, system_type, max_queues, max_players, max_availability_hours,
   allow_custom_queues, queue_limit_behavior)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (guild_id) DO NOTHING
`, def.GuildID, def.SystemType, def.MaxQueues, def.MaxPlayers, def.MaxAvailability,
			def.AllowCustomQueues, string(def.QueueLimitMode))
		if err != nil {
			return domain.GuildConfig{}, err
		}
		return r.Get(ctx, guildID)
	}
	if err != nil {
		return domain.GuildConfig{}, err
	}
	c.QueueLimitMode = domain.LimitBehavior(mode)
	return c, nil
}
