package service

import (
	"context"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

// Lo implementa internal/infra/storage.Store. Contrato best-effort:
// la memoria manda, el store es un espejo que puede estar caído; por
// eso los writes no devuelven error (el adapter loguea y encola).
type QueueStore interface {
	SaveQueue(ctx context.Context, q domain.Queue)
	DeactivateQueue(ctx context.Context, queueID string)
}

type SearchStore interface {
	SaveSearch(ctx context.Context, s domain.StandingSearch)
	DeactivateSearch(ctx context.Context, userID string)
}

// Lo implementa internal/adapters/discord.Notifier. Todo best-effort:
// un fallo de la plataforma nunca aborta la operación en memoria.
type Notifier interface {
	QueueFull(q domain.Queue)
	QueueClosed(q domain.Queue, reason CloseReason)
	ExpiryAccelerated(q domain.Queue)
	SearchMatched(s domain.StandingSearch, q domain.Queue)
}

// RoleSync maneja el rol de Discord 1:1 con cada cola (la "agrupación"
// del lado de la plataforma). Create devuelve el id para que el
// registry lo recuerde; el resto es fire-and-forget.
type RoleSync interface {
	CreateQueueRole(guildID, queueName string) (string, error)
	Grant(guildID, userID, roleID string)
	Revoke(guildID, userID, roleID string)
	DeleteQueueRole(guildID, roleID string)
}

type CloseReason string

const (
	CloseManual  CloseReason = "closed"
	CloseExpired CloseReason = "expired"
	CloseLimit   CloseReason = "queue limit"
)
