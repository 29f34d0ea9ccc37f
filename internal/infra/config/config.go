package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL  string // opcional: vacío = memory-only
	DiscordToken string
	DiscordGuild string
	AdminRoleIDs []string // roles que cuentan como admin del bot

	// Techo duro de vida de una cola, pida lo que pida el usuario.
	QueueMaxLifetime time.Duration
	StoreReconnect   time.Duration
}

func Load() Config {
	get := func(k string, req bool) string {
		v := os.Getenv(k)
		if v == "" && req {
			log.Fatalf("faltante env %s", k)
		}
		return v
	}
	getHours := func(k string, def int) time.Duration {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return time.Duration(n) * time.Hour
			}
			log.Printf("⚠️ %s inválido (%q), uso default %dh", k, v, def)
		}
		return time.Duration(def) * time.Hour
	}
	getSeconds := func(k string, def int) time.Duration {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return time.Duration(n) * time.Second
			}
			log.Printf("⚠️ %s inválido (%q), uso default %ds", k, v, def)
		}
		return time.Duration(def) * time.Second
	}

	var adminRoles []string
	for _, id := range strings.Split(get("ADMIN_ROLE_IDS", false), ",") {
		if id = strings.TrimSpace(id); id != "" {
			adminRoles = append(adminRoles, id)
		}
	}

	return Config{
		DatabaseURL:      get("DATABASE_URL", false),
		DiscordToken:     get("DISCORD_BOT_TOKEN", true),
		DiscordGuild:     get("DISCORD_GUILD_ID", true),
		AdminRoleIDs:     adminRoles,
		QueueMaxLifetime: getHours("QUEUE_MAX_LIFETIME_HOURS", 4),
		StoreReconnect:   getSeconds("STORE_RECONNECT_SECONDS", 30),
	}
}
