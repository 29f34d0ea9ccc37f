package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

func TestCreateValidations(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	cfg := testConfig("g1")

	_, err := f.registry.Create(ctx, CreateParams{GuildID: "g1", OwnerID: "u1", Game: "x", PlayersNeeded: 5, AvailabilityHours: 1}, cfg)
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = f.registry.Create(ctx, CreateParams{GuildID: "g1", OwnerID: "u1", Game: "valorant", PlayersNeeded: 1, AvailabilityHours: 1}, cfg)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = f.registry.Create(ctx, CreateParams{GuildID: "g1", OwnerID: "u1", Game: "valorant", PlayersNeeded: cfg.MaxPlayers + 1, AvailabilityHours: 1}, cfg)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = f.registry.Create(ctx, CreateParams{GuildID: "g1", OwnerID: "u1", Game: "valorant", PlayersNeeded: 5, AvailabilityHours: cfg.MaxAvailability + 1}, cfg)
	require.ErrorIs(t, err, ErrOutOfRange)

	// finalmente una válida; el owner queda adentro y no puede crear otra
	q := mustCreate(f, "u1", "valorant", 5)
	require.Equal(t, []string{"u1"}, q.Members)

	_, err = f.registry.Create(ctx, CreateParams{GuildID: "g1", OwnerID: "u1", Game: "dota", PlayersNeeded: 5, AvailabilityHours: 1}, cfg)
	require.ErrorIs(t, err, ErrAlreadyInQueue)
}

func TestEndsAtRespectsHardCeiling(t *testing.T) {
	f := newFixture(4 * time.Hour)
	q, err := f.registry.Create(context.Background(), CreateParams{
		GuildID: "g1", OwnerID: "u1", Game: "valorant", PlayersNeeded: 5, AvailabilityHours: 12,
	}, testConfig("g1"))
	require.NoError(t, err)
	// pidió 12h pero el techo duro manda
	require.Equal(t, q.MaxEndsAt, q.EndsAt)
	require.WithinDuration(t, q.CreatedAt.Add(4*time.Hour), q.MaxEndsAt, time.Second)
}

// Cola de 2: entra el segundo y el full se señala exactamente una
// vez; el tercero rebota con Full.
func TestJoinFullTransition(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	q := mustCreate(f, "u1", "valorant", 2)

	res, err := f.registry.Join(ctx, q.ID, "u2")
	require.NoError(t, err)
	require.True(t, res.BecameFull)
	require.Len(t, res.Queue.Members, 2)
	require.Equal(t, 1, f.notify.fullCount())

	_, err = f.registry.Join(ctx, q.ID, "u3")
	require.ErrorIs(t, err, ErrFull)
	require.Equal(t, 1, f.notify.fullCount(), "full se señala una sola vez")

	// llena no es cerrada: la cola sigue viva
	_, ok := f.registry.Queue(q.ID)
	require.True(t, ok)
}

func TestJoinRejections(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	q := mustCreate(f, "u1", "valorant", 3)

	_, err := f.registry.Join(ctx, "nope", "u2")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.registry.Join(ctx, q.ID, "u1")
	require.ErrorIs(t, err, ErrAlreadyInQueue)

	q2 := mustCreate(f, "u9", "dota", 3)
	_, err = f.registry.Join(ctx, q2.ID, "u1")
	require.ErrorIs(t, err, ErrAlreadyInQueue, "una cola por persona, en todo el proceso")
}

// El owner no abandona, cierra.
func TestOwnerCannotLeave(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	q := mustCreate(f, "u1", "valorant", 3)

	err := f.registry.Leave(ctx, q.ID, "u1")
	require.ErrorIs(t, err, ErrOwnerCannotLeave)

	got, ok := f.registry.Queue(q.ID)
	require.True(t, ok)
	require.Equal(t, []string{"u1"}, got.Members, "la membresía no se tocó")
}

func TestLeaveClearsReverseIndexAndRole(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	q := mustCreate(f, "u1", "overwatch", 4)
	_, err := f.registry.SetRequirementAndAddRole(ctx, q.ID, false, "Tank", 2)
	require.NoError(t, err)

	_, err = f.registry.Join(ctx, q.ID, "u2")
	require.NoError(t, err)
	got, _ := f.registry.Queue(q.ID)
	require.NoError(t, f.registry.AssignRole(ctx, q.ID, "u2", got.Roles[0].ID))

	require.NoError(t, f.registry.Leave(ctx, q.ID, "u2"))

	got, _ = f.registry.Queue(q.ID)
	require.NotContains(t, got.Members, "u2")
	require.Empty(t, got.Roles[0].Players, "el cupo del rol se libera al salir")
	require.NotContains(t, got.MemberRoles, "u2")

	// y puede entrar a otra cola
	q2 := mustCreate(f, "u9", "dota", 3)
	_, err = f.registry.Join(ctx, q2.ID, "u2")
	require.NoError(t, err)

	err = f.registry.Leave(ctx, q2.ID, "u7")
	require.ErrorIs(t, err, ErrNotMember)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	q := mustCreate(f, "u1", "valorant", 3)
	_, err := f.registry.Join(ctx, q.ID, "u2")
	require.NoError(t, err)

	f.registry.Close(ctx, q.ID)
	f.registry.Close(ctx, q.ID) // segunda vez: no-op, no error, no doble notificación

	_, ok := f.registry.Queue(q.ID)
	require.False(t, ok)
	require.Len(t, f.notify.closedEvents(), 1)
	require.Equal(t, []string{q.ID}, f.store.deactivatedQueues())

	// el índice inverso quedó limpio: ambos pueden crear/entrar de nuevo
	mustCreate(f, "u1", "valorant", 3)
	mustCreate(f, "u2", "dota", 3)
}

// El cierre administrativo por id respeta el guild: permisos de un
// guild no cierran colas de otro, aunque el id sea correcto.
func TestCloseInGuildScopesByGuild(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	q := mustCreate(f, "u1", "valorant", 3) // vive en g1

	require.ErrorIs(t, f.registry.CloseInGuild(ctx, "g2", q.ID), ErrNotFound)
	_, ok := f.registry.Queue(q.ID)
	require.True(t, ok, "la cola sigue viva")
	require.Empty(t, f.notify.closedEvents())

	require.NoError(t, f.registry.CloseInGuild(ctx, "g1", q.ID))
	_, ok = f.registry.Queue(q.ID)
	require.False(t, ok)
	require.Len(t, f.notify.closedEvents(), 1)

	require.ErrorIs(t, f.registry.CloseInGuild(ctx, "g1", q.ID), ErrNotFound)
}

func TestExpiryTimerTearsDown(t *testing.T) {
	// techo de vida ridículo para que el timer dispare ya
	f := newFixture(30 * time.Millisecond)
	q := mustCreate(f, "u1", "valorant", 3)

	require.Eventually(t, func() bool {
		_, ok := f.registry.Queue(q.ID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	events := f.notify.closedEvents()
	require.Len(t, events, 1)
	require.Equal(t, CloseExpired, events[0].reason)

	// el user quedó libre
	mustCreate(f, "u1", "valorant", 3)
}

func TestExpiryAndManualCloseRace(t *testing.T) {
	f := newFixture(30 * time.Millisecond)
	q := mustCreate(f, "u1", "valorant", 3)

	// cierre manual pegado al vencimiento: gane quien gane, el
	// teardown corre una sola vez
	f.registry.Close(context.Background(), q.ID)
	time.Sleep(100 * time.Millisecond)

	require.Len(t, f.notify.closedEvents(), 1)
	require.Equal(t, []string{q.ID}, f.store.deactivatedQueues())
}

func TestReverseIndexMatchesMemberships(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	q1 := mustCreate(f, "u1", "valorant", 4)
	q2 := mustCreate(f, "u2", "dota", 4)
	_, err := f.registry.Join(ctx, q1.ID, "u3")
	require.NoError(t, err)
	_, err = f.registry.Join(ctx, q2.ID, "u4")
	require.NoError(t, err)
	require.NoError(t, f.registry.Leave(ctx, q1.ID, "u3"))

	f.registry.mu.Lock()
	defer f.registry.mu.Unlock()
	// índice → membresía
	for uid, qid := range f.registry.byUser {
		q, ok := f.registry.queues[qid]
		require.True(t, ok, "índice apunta a cola viva")
		require.True(t, q.HasMember(uid))
	}
	// membresía → índice, y a lo sumo una cola por user
	seen := map[string]string{}
	for qid, q := range f.registry.queues {
		require.LessOrEqual(t, len(q.Members), q.PlayersNeeded)
		for _, m := range q.Members {
			require.NotContains(t, seen, m, "user en dos colas")
			seen[m] = qid
			require.Equal(t, qid, f.registry.byUser[m])
		}
	}
}

func TestDescribe(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	q := mustCreate(f, "u1", "valorant", 3)

	require.NoError(t, f.registry.Describe(ctx, q.ID, "  con micro porfa  "))
	got, _ := f.registry.Queue(q.ID)
	require.Equal(t, "con micro porfa", got.Description)

	require.ErrorIs(t, f.registry.Describe(ctx, "nope", "x"), ErrNotFound)
}

func TestRestoreSkipsExpired(t *testing.T) {
	f := newFixture(0)
	now := time.Now()
	alive := domain.Queue{
		ID: "q-alive", GuildID: "g1", OwnerID: "u1", Game: "valorant",
		PlayersNeeded: 3, Members: []string{"u1", "u2"},
		CreatedAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), MaxEndsAt: now.Add(3 * time.Hour),
	}
	dead := domain.Queue{
		ID: "q-dead", GuildID: "g1", OwnerID: "u3", Game: "dota",
		PlayersNeeded: 3, Members: []string{"u3"},
		CreatedAt: now.Add(-5 * time.Hour), EndsAt: now.Add(-time.Hour), MaxEndsAt: now.Add(-time.Hour),
	}

	f.registry.Restore(context.Background(), []domain.Queue{alive, dead})

	_, ok := f.registry.Queue("q-alive")
	require.True(t, ok)
	_, ok = f.registry.Queue("q-dead")
	require.False(t, ok)
	require.Contains(t, f.store.deactivatedQueues(), "q-dead")

	// la rehidratada conserva el índice inverso
	got, ok := f.registry.QueueOf("u2")
	require.True(t, ok)
	require.Equal(t, "q-alive", got.ID)
}

// La fila persistida no guarda el techo duro: Restore lo recalcula
// desde created_at para que el invariante EndsAt <= MaxEndsAt siga
// valiendo después de un restart.
func TestRestoreRecomputesHardCeiling(t *testing.T) {
	f := newFixture(4 * time.Hour)
	now := time.Now()
	q := domain.Queue{
		ID: "q-db", GuildID: "g1", OwnerID: "u1", Game: "valorant",
		PlayersNeeded: 3, Members: []string{"u1"},
		CreatedAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
		// MaxEndsAt cero, como vuelve de la DB
	}

	f.registry.Restore(context.Background(), []domain.Queue{q})

	got, ok := f.registry.Queue("q-db")
	require.True(t, ok)
	require.WithinDuration(t, q.CreatedAt.Add(4*time.Hour), got.MaxEndsAt, time.Second)
	require.False(t, got.EndsAt.After(got.MaxEndsAt))
}
