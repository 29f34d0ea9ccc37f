package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

func fillGuild(t *testing.T, f *fixture, cfg domain.GuildConfig, n int) []*domain.Queue {
	t.Helper()
	out := make([]*domain.Queue, 0, n)
	for i := 0; i < n; i++ {
		q, err := f.registry.Create(context.Background(), CreateParams{
			GuildID:           cfg.GuildID,
			OwnerID:           fmt.Sprintf("owner-%d", i),
			Game:              fmt.Sprintf("game %d", i),
			PlayersNeeded:     5,
			AvailabilityHours: 2,
		}, cfg)
		require.NoError(t, err)
		out = append(out, q)
		time.Sleep(time.Millisecond) // orden de creación estable
	}
	return out
}

// Policy block: la sexta creación rebota y el registro no cambia.
func TestLimitBlock(t *testing.T) {
	f := newFixture(0)
	cfg := testConfig("g1")
	cfg.MaxQueues = 5
	cfg.QueueLimitMode = domain.LimitBlock

	fillGuild(t, f, cfg, 5)

	_, err := f.registry.Create(context.Background(), CreateParams{
		GuildID: "g1", OwnerID: "late", Game: "tetris", PlayersNeeded: 2, AvailabilityHours: 1,
	}, cfg)
	require.ErrorIs(t, err, ErrQueueLimitReached)
	require.Len(t, f.registry.GuildQueues("g1"), 5)
}

// Policy expire con overflow 3: las 3 más viejas se cierran de una
// y la nueva entra igual.
func TestLimitExpireForceCloses(t *testing.T) {
	f := newFixture(0)
	cfg := testConfig("g1")
	cfg.MaxQueues = 5
	cfg.QueueLimitMode = domain.LimitExpire

	qs := fillGuild(t, f, cfg, 7)

	q, err := f.registry.Create(context.Background(), CreateParams{
		GuildID: "g1", OwnerID: "late", Game: "tetris", PlayersNeeded: 2, AvailabilityHours: 1,
	}, cfg)
	require.NoError(t, err)
	require.Len(t, f.registry.GuildQueues("g1"), 5)

	// las 3 más viejas murieron, el resto sigue
	for _, old := range qs[:3] {
		_, ok := f.registry.Queue(old.ID)
		require.False(t, ok)
	}
	for _, still := range qs[3:] {
		_, ok := f.registry.Queue(still.ID)
		require.True(t, ok)
	}
	_, ok := f.registry.Queue(q.ID)
	require.True(t, ok)

	events := f.notify.closedEvents()
	require.Len(t, events, 3)
	for _, ev := range events {
		require.Equal(t, CloseLimit, ev.reason)
	}
}

// Overflow chico (1-2): no se cierra nada, se les acorta la vida a
// now+5m y se avisa una vez por cola afectada.
func TestLimitExpireSqueezesOldest(t *testing.T) {
	f := newFixture(0)
	cfg := testConfig("g1")
	cfg.MaxQueues = 2
	cfg.QueueLimitMode = domain.LimitExpire

	qs := fillGuild(t, f, cfg, 2)
	before := time.Now()

	_, err := f.registry.Create(context.Background(), CreateParams{
		GuildID: "g1", OwnerID: "late", Game: "tetris", PlayersNeeded: 2, AvailabilityHours: 1,
	}, cfg)
	require.NoError(t, err)

	// nadie se cerró: expire no rechaza ni borra con overflow 1
	require.Len(t, f.registry.GuildQueues("g1"), 3)
	require.Empty(t, f.notify.closedEvents())

	oldest, ok := f.registry.Queue(qs[0].ID)
	require.True(t, ok)
	require.WithinDuration(t, before.Add(squeezeWindow), oldest.EndsAt, 2*time.Second)

	second, _ := f.registry.Queue(qs[1].ID)
	require.True(t, second.EndsAt.After(before.Add(time.Hour-time.Minute)), "solo la más vieja se acorta")
	require.Equal(t, 1, f.notify.acceleratedCount())
}

func TestLimitExpireDoesNotExtend(t *testing.T) {
	f := newFixture(0)
	cfg := testConfig("g1")
	cfg.MaxQueues = 1
	cfg.QueueLimitMode = domain.LimitExpire

	q := fillGuild(t, f, cfg, 1)[0]

	// dejala venciendo antes de los 5 minutos
	f.registry.mu.Lock()
	f.registry.queues[q.ID].EndsAt = time.Now().Add(time.Minute)
	f.registry.mu.Unlock()

	_, err := f.registry.Create(context.Background(), CreateParams{
		GuildID: "g1", OwnerID: "late", Game: "tetris", PlayersNeeded: 2, AvailabilityHours: 1,
	}, cfg)
	require.NoError(t, err)

	got, _ := f.registry.Queue(q.ID)
	require.True(t, got.EndsAt.Before(time.Now().Add(2*time.Minute)), "acortar nunca alarga")
	require.Equal(t, 0, f.notify.acceleratedCount())
}
