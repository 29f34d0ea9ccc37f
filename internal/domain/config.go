package domain

// LimitBehavior: qué hacer cuando el guild llegó a maxQueues.
type LimitBehavior string

const (
	LimitBlock  LimitBehavior = "block"  // rechaza la creación
	LimitExpire LimitBehavior = "expire" // acorta/borra las más viejas
)

// GuildConfig es la configuración por guild. El core la consume
// read-mostly; la edita el wizard de settings (fuera de este repo).
type GuildConfig struct {
	GuildID           string
	SystemType        string // single | two | multi channel
	QueuesChannelID   string
	CategoryID        string
	MaxQueues         int
	MaxPlayers        int
	MaxAvailability   int // horas
	AllowCustomQueues bool
	QueueLimitMode    LimitBehavior
}

// DefaultGuildConfig se usa cuando no hay fila o no hay DB.
func DefaultGuildConfig(guildID string) GuildConfig {
	return GuildConfig{
		GuildID:           guildID,
		SystemType:        "single",
		MaxQueues:         5,
		MaxPlayers:        10,
		MaxAvailability:   12,
		AllowCustomQueues: true,
		QueueLimitMode:    LimitBlock,
	}
}
