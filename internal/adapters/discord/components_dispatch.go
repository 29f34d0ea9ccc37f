package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/lfg-queue-bot/internal/app/service"
	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

func (r *Router) handleComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()
	userID := interactionUserID(ic)

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	if !r.clickLimiter.Allow(userID) {
		ReplyEphemeral(s, ic, "⏳ Esperá un segundo…")
		return
	}

	id := data.CustomID
	switch {
	case id == "board_join":
		if len(data.Values) == 0 {
			return
		}
		r.join(ctx, s, ic, userID, data.Values[0], false)

	case id == "board_leave":
		q, ok := r.registry.QueueOf(userID)
		if !ok {
			ReplyEphemeral(s, ic, "ℹ️ No estás en ninguna cola.")
			return
		}
		if err := r.registry.Leave(ctx, q.ID, userID); err != nil {
			ReplyEphemeral(s, ic, errText(err))
			return
		}
		ReplyEphemeral(s, ic, "✅ Saliste de la cola de **"+queueTitle(q)+"**.")
		r.RefreshBoard(ic.GuildID)

	case id == "board_refresh":
		r.RefreshBoard(ic.GuildID)
		ReplyEphemeral(s, ic, "🔄 Listo.")

	case strings.HasPrefix(id, "s_join:"):
		// confirmación de un match de búsqueda (viene por DM)
		r.join(ctx, s, ic, userID, strings.TrimPrefix(id, "s_join:"), true)

	case strings.HasPrefix(id, "q_rolejoin:"):
		// q_rolejoin:<s|b>:<queueID> — el origen viaja en el custom id
		// para que el commit sepa si tiene que consumir la búsqueda
		origin, queueID, ok := strings.Cut(strings.TrimPrefix(id, "q_rolejoin:"), ":")
		if !ok || len(data.Values) == 0 {
			return
		}
		var res service.JoinResult
		var err error
		if origin == "s" {
			res, err = r.registry.JoinWithRoleFromSearch(ctx, queueID, userID, data.Values[0])
		} else {
			res, err = r.registry.JoinWithRole(ctx, queueID, userID, data.Values[0])
		}
		if err != nil {
			ReplyEphemeral(s, ic, errText(err))
			return
		}
		r.replyJoined(s, ic, res)

	case strings.HasPrefix(id, "q_req:"):
		r.handleFirstRoleDecision(ctx, s, ic, userID, strings.TrimPrefix(id, "q_req:"))
	}
}

// join maneja board_join y s_join. Si la cola exige rol, acá no se
// commitea nada: se ofrece el select de roles y el commit real pasa
// en q_rolejoin (revalidado de cero).
func (r *Router) join(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, userID, queueID string, fromSearch bool) {
	q, ok := r.registry.Queue(queueID)
	if !ok {
		ReplyEphemeral(s, ic, errText(service.ErrNotFound))
		return
	}
	if q.RoleRequirement == domain.RoleRequirementRequired && len(q.Roles) > 0 {
		var opts []discordgo.SelectMenuOption
		for _, role := range q.Roles {
			if role.IsFull() {
				continue
			}
			opts = append(opts, discordgo.SelectMenuOption{
				Label: fmt.Sprintf("%s (%d/%d)", role.Name, len(role.Players), role.MaxPlayers),
				Value: role.ID,
			})
		}
		if len(opts) == 0 {
			ReplyEphemeral(s, ic, errText(service.ErrNoRoleCapacity))
			return
		}
		origin := "b"
		if fromSearch {
			origin = "s"
		}
		ReplyEphemeralComplex(s, ic,
			"Esta cola tiene **roles obligatorios**: elegí el tuyo para entrar.",
			[]discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{CustomID: "q_rolejoin:" + origin + ":" + queueID, Options: opts},
			}}},
		)
		return
	}

	var res service.JoinResult
	var err error
	if fromSearch {
		res, err = r.registry.JoinFromSearch(ctx, queueID, userID)
	} else {
		res, err = r.registry.Join(ctx, queueID, userID)
	}
	if err != nil {
		ReplyEphemeral(s, ic, errText(err))
		return
	}
	r.replyJoined(s, ic, res)
}

func (r *Router) replyJoined(s *discordgo.Session, ic *discordgo.InteractionCreate, res service.JoinResult) {
	msg := fmt.Sprintf("✅ Entraste a la cola de **%s** (%d/%d).",
		queueTitle(res.Queue), len(res.Queue.Members), res.Queue.PlayersNeeded)
	if res.BecameFull {
		msg += " 🎉 ¡Se completó!"
	}
	ReplyEphemeral(s, ic, msg)
	r.RefreshBoard(res.Queue.GuildID)
}

// q_req:<queueID>:<req|opt>:<max>:<name> — el name va último porque
// puede traer ':'.
func (r *Router) handleFirstRoleDecision(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, userID, rest string) {
	parts := strings.SplitN(rest, ":", 4)
	if len(parts) != 4 {
		return
	}
	queueID, decision, name := parts[0], parts[1], parts[3]
	max, err := strconv.Atoi(parts[2])
	if err != nil {
		return
	}

	q, ok := r.registry.Queue(queueID)
	if !ok {
		ReplyEphemeral(s, ic, errText(service.ErrNotFound))
		return
	}
	if q.OwnerID != userID {
		ReplyEphemeral(s, ic, "ℹ️ La decisión es del owner de la cola.")
		return
	}
	role, err := r.registry.SetRequirementAndAddRole(ctx, queueID, decision == "req", name, max)
	if err != nil {
		ReplyEphemeral(s, ic, errText(err))
		return
	}
	req := "opcionales"
	if decision == "req" {
		req = "obligatorios"
	}
	ReplyEphemeral(s, ic, fmt.Sprintf("✅ Rol **%s** (x%d) agregado; los roles de esta cola son **%s**.", role.Name, role.MaxPlayers, req))
	r.RefreshBoard(ic.GuildID)
}
