package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/lfg-queue-bot/internal/app/service"
	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

func (r *Router) handleSlash(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.ApplicationCommandData().Name != "lfg" {
		return
	}
	userID := interactionUserID(ic)

	switch subcmdPath(ic) {
	case "create":
		game, _ := optStr(ic, "game")
		players, _ := optInt(ic, "players")
		mode, _ := optStr(ic, "mode")
		hours, ok := optInt(ic, "hours")
		if !ok {
			hours = 1
		}
		desc, _ := optStr(ic, "description")

		cfg := r.store.GuildConfig(ctx, ic.GuildID)
		if !cfg.AllowCustomQueues {
			ReplyEphemeral(s, ic, "❌ Este server no permite colas custom.")
			return
		}
		q, err := r.registry.Create(ctx, service.CreateParams{
			GuildID:           ic.GuildID,
			OwnerID:           userID,
			Game:              game,
			Mode:              mode,
			Description:       desc,
			PlayersNeeded:     players,
			AvailabilityHours: hours,
		}, cfg)
		if err != nil {
			ReplyEphemeral(s, ic, errText(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Cola creada: %s. Id `%s`.", queueLine(*q), q.ID))
		r.RefreshBoard(ic.GuildID)

	case "leave":
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

	case "close":
		target, hasTarget := optStr(ic, "queue_id")
		caps := r.capabilities(ic)
		if hasTarget && target != "" {
			if !caps.CanManageQueues() {
				ReplyEphemeral(s, ic, "🔒 Cerrar colas ajenas es de admin/mod.")
				return
			}
			if err := r.registry.CloseInGuild(ctx, ic.GuildID, target); err != nil {
				ReplyEphemeral(s, ic, errText(err))
				return
			}
			ReplyEphemeral(s, ic, "✅ Cola cerrada.")
			r.RefreshBoard(ic.GuildID)
			return
		}
		q, ok := r.registry.QueueOf(userID)
		if !ok || q.OwnerID != userID {
			ReplyEphemeral(s, ic, "ℹ️ No tenés una cola propia abierta.")
			return
		}
		r.registry.Close(ctx, q.ID)
		ReplyEphemeral(s, ic, "✅ Cerraste tu cola de **"+queueTitle(q)+"**.")
		r.RefreshBoard(ic.GuildID)

	case "list":
		qs := r.registry.GuildQueues(ic.GuildID)
		if len(qs) == 0 {
			ReplyEphemeral(s, ic, "ℹ️ No hay colas abiertas.")
			return
		}
		var b strings.Builder
		for i, q := range qs {
			fmt.Fprintf(&b, "%d) %s\n", i+1, queueLine(q))
		}
		ReplyEphemeral(s, ic, b.String())

	case "info":
		q, ok := r.registry.QueueOf(userID)
		if !ok {
			ReplyEphemeral(s, ic, "ℹ️ No estás en ninguna cola.")
			return
		}
		ReplyEphemeral(s, ic, "", queueEmbed(q))

	case "describe":
		text, _ := optStr(ic, "text")
		q, ok := r.registry.QueueOf(userID)
		if !ok || q.OwnerID != userID {
			ReplyEphemeral(s, ic, "ℹ️ No tenés una cola propia abierta.")
			return
		}
		if err := r.registry.Describe(ctx, q.ID, text); err != nil {
			ReplyEphemeral(s, ic, errText(err))
			return
		}
		ReplyEphemeral(s, ic, "✅ Descripción actualizada.")
		r.RefreshBoard(ic.GuildID)

	case "role add":
		r.handleRoleAdd(ctx, s, ic, userID)

	case "role remove":
		name, _ := optStr(ic, "name")
		q, ok := r.registry.QueueOf(userID)
		if !ok || q.OwnerID != userID {
			ReplyEphemeral(s, ic, "ℹ️ Los roles los maneja el owner de la cola.")
			return
		}
		role := q.RoleByName(name)
		if role == nil {
			ReplyEphemeral(s, ic, "❌ No hay un rol con ese nombre.")
			return
		}
		if err := r.registry.RemoveRole(ctx, q.ID, role.ID); err != nil {
			ReplyEphemeral(s, ic, errText(err))
			return
		}
		ReplyEphemeral(s, ic, "✅ Rol **"+role.Name+"** eliminado; sus asignados quedaron sin rol.")
		r.RefreshBoard(ic.GuildID)

	case "role assign":
		name, _ := optStr(ic, "name")
		q, ok := r.registry.QueueOf(userID)
		if !ok {
			ReplyEphemeral(s, ic, "ℹ️ No estás en ninguna cola.")
			return
		}
		role := q.RoleByName(name)
		if role == nil {
			ReplyEphemeral(s, ic, "❌ No hay un rol con ese nombre.")
			return
		}
		if err := r.registry.AssignRole(ctx, q.ID, userID, role.ID); err != nil {
			ReplyEphemeral(s, ic, errText(err))
			return
		}
		ReplyEphemeral(s, ic, "✅ Tomaste el rol **"+role.Name+"**.")
		r.RefreshBoard(ic.GuildID)

	case "search":
		game, _ := optStr(ic, "game")
		mode, _ := optStr(ic, "mode")
		hours, _ := optInt(ic, "hours")
		sr, err := r.searches.Register(ctx, userID, ic.GuildID, game, mode, hours)
		if err != nil {
			ReplyEphemeral(s, ic, errText(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("🔎 Listo: te aviso por DM si aparece una cola de **%s** hasta <t:%d:t>.", sr.Game, sr.EndsAt.Unix()))

	case "cancelsearch":
		if err := r.searches.Cancel(ctx, userID); err != nil {
			ReplyEphemeral(s, ic, "ℹ️ No tenías ninguna búsqueda activa.")
			return
		}
		ReplyEphemeral(s, ic, "✅ Búsqueda cancelada.")

	case "board":
		if !r.capabilities(ic).CanManageQueues() {
			ReplyEphemeral(s, ic, "🔒 Publicar el tablero es de admin/mod.")
			return
		}
		if err := r.publishBoard(ctx, ic.GuildID, ic.ChannelID); err != nil {
			ReplyEphemeral(s, ic, "⚠️ No pude publicar el tablero: "+err.Error())
			return
		}
		ReplyEphemeral(s, ic, "✅ Tablero publicado.")
	}
}

// role add tiene el caso especial del primer rol: si nadie decidió
// todavía required/optional, el core rechaza y acá capturamos la
// decisión con dos botones; el commit real pasa después, junto.
func (r *Router) handleRoleAdd(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, userID string) {
	name, _ := optStr(ic, "name")
	max, _ := optInt(ic, "max")

	q, ok := r.registry.QueueOf(userID)
	if !ok || q.OwnerID != userID {
		ReplyEphemeral(s, ic, "ℹ️ Los roles los maneja el owner de la cola.")
		return
	}
	role, err := r.registry.AddRole(ctx, q.ID, name, max)
	if err == nil {
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Rol **%s** (x%d) agregado (%s).", role.Name, role.MaxPlayers, q.RoleRequirement))
		r.RefreshBoard(ic.GuildID)
		return
	}
	if err != service.ErrRequirementNotSet {
		ReplyEphemeral(s, ic, errText(err))
		return
	}

	// el nombre va al final del custom id porque puede traer ':'
	customID := func(kind string) string {
		return fmt.Sprintf("q_req:%s:%s:%d:%s", q.ID, kind, max, name)
	}
	ReplyEphemeralComplex(s, ic,
		"Es el primer rol de la cola: ¿los roles van a ser **obligatorios** u **opcionales**? La decisión vale para todos los roles que agregues después.",
		[]discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Style: discordgo.PrimaryButton, Label: "Obligatorios", CustomID: customID("req")},
			discordgo.Button{Style: discordgo.SecondaryButton, Label: "Opcionales", CustomID: customID("opt")},
		}}},
	)
}

func queueEmbed(q domain.Queue) *discordgo.MessageEmbed {
	var b strings.Builder
	for i, m := range q.Members {
		fmt.Fprintf(&b, "%d) <@%s>", i+1, m)
		if rid, ok := q.MemberRoles[m]; ok {
			if role, _ := q.RoleByID(rid); role != nil {
				b.WriteString(" — " + role.Name)
			}
		}
		b.WriteString("\n")
	}
	e := &discordgo.MessageEmbed{
		Title:       queueTitle(q),
		Description: q.Description,
		Fields: []*discordgo.MessageEmbedField{
			{Name: fmt.Sprintf("Jugadores %d/%d", len(q.Members), q.PlayersNeeded), Value: b.String()},
		},
	}
	if len(q.Roles) > 0 {
		var rb strings.Builder
		for _, role := range q.Roles {
			fmt.Fprintf(&rb, "**%s** %d/%d\n", role.Name, len(role.Players), role.MaxPlayers)
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  "Roles (" + q.RoleRequirement.String() + ")",
			Value: rb.String(),
		})
	}
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
		Name:  "Cierra",
		Value: fmt.Sprintf("<t:%d:R>", q.EndsAt.Unix()),
	})
	return e
}
