package storage

import "time"

// GuildUI: dónde quedó publicado el tablero de colas del guild.
type GuildUI struct {
	GuildID        string
	BoardChannelID string
	BoardMessageID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
