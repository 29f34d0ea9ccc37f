package storage

import (
	"context"
	"database/sql"
)

type UIRepo struct{ db *sql.DB }

func NewUIRepo(db *sql.DB) *UIRepo { return &UIRepo{db: db} }

func (r *UIRepo) Get(ctx context.Context, guildID string) (GuildUI, error) {
	var u GuildUI
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, board_channel_id, board_message_id, created_at, updated_at
  FROM guild_ui
 WHERE guild_id = $1
`, guildID).Scan(&u.GuildID, &u.BoardChannelID, &u.BoardMessageID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UIRepo) Upsert(ctx context.Context, guildID, channelID, messageID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_ui (guild_id, board_channel_id, board_message_id)
VALUES ($1,$2,$3)
ON CONFLICT (guild_id) DO UPDATE SET
  board_channel_id = EXCLUDED.board_channel_id,
  board_message_id = EXCLUDED.board_message_id,
  updated_at       = now()
`, guildID, channelID, messageID)
	return err
}
