package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/lfg-queue-bot/internal/app/service"
	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

// interactionUserID: en guild viene Member, en DM viene User.
func interactionUserID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

// Los options pueden venir anidados (subcommand o group/subcommand);
// buscamos por nombre en los tres niveles.
func findOpt(ic *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	var walk func(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption
	walk = func(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
		for _, o := range opts {
			if o.Name == name && o.Type != discordgo.ApplicationCommandOptionSubCommand &&
				o.Type != discordgo.ApplicationCommandOptionSubCommandGroup {
				return o
			}
			if len(o.Options) > 0 {
				if f := walk(o.Options); f != nil {
					return f
				}
			}
		}
		return nil
	}
	return walk(ic.ApplicationCommandData().Options)
}

func optStr(ic *discordgo.InteractionCreate, name string) (string, bool) {
	if o := findOpt(ic, name); o != nil {
		return o.StringValue(), true
	}
	return "", false
}

func optInt(ic *discordgo.InteractionCreate, name string) (int, bool) {
	if o := findOpt(ic, name); o != nil {
		return int(o.IntValue()), true
	}
	return 0, false
}

// subcmdPath devuelve "create", "role add", etc.
func subcmdPath(ic *discordgo.InteractionCreate) string {
	for _, o := range ic.ApplicationCommandData().Options {
		switch o.Type {
		case discordgo.ApplicationCommandOptionSubCommand:
			return o.Name
		case discordgo.ApplicationCommandOptionSubCommandGroup:
			for _, so := range o.Options {
				if so.Type == discordgo.ApplicationCommandOptionSubCommand {
					return o.Name + " " + so.Name
				}
			}
		}
	}
	return ""
}

// errText traduce los rechazos del core a texto de usuario. El core
// nunca formatea strings; eso es asunto nuestro.
func errText(err error) string {
	switch {
	case errors.Is(err, service.ErrAlreadyInQueue):
		return "❌ Ya estás en una cola. Salí de esa antes (`/lfg leave`)."
	case errors.Is(err, service.ErrNotFound):
		return "❌ Esa cola ya no existe."
	case errors.Is(err, service.ErrFull):
		return "❌ La cola ya está completa."
	case errors.Is(err, service.ErrNotMember):
		return "❌ No estás en esa cola."
	case errors.Is(err, service.ErrOwnerCannotLeave):
		return "❌ Sos el owner: la cola se cierra (`/lfg close`), no se abandona."
	case errors.Is(err, service.ErrQueueLimitReached):
		return "❌ El server llegó al máximo de colas abiertas. Probá más tarde."
	case errors.Is(err, service.ErrNoRoleCapacity):
		return "❌ Todos los roles están completos."
	case errors.Is(err, service.ErrRoleFull):
		return "❌ Ese rol ya está completo."
	case errors.Is(err, service.ErrDuplicateRole):
		return "❌ Ya hay un rol con ese nombre."
	case errors.Is(err, service.ErrTooManyRoles):
		return "❌ La cola ya tiene el máximo de roles."
	case errors.Is(err, service.ErrSearchActive):
		return "❌ Ya tenés una búsqueda activa (`/lfg cancelsearch` para cambiarla)."
	case errors.Is(err, service.ErrInvalidName):
		return "❌ Nombre muy corto."
	case errors.Is(err, service.ErrOutOfRange):
		return "❌ Valor fuera de rango."
	default:
		return "⚠️ No salió: " + err.Error()
	}
}

func queueTitle(q domain.Queue) string {
	if q.Mode != "" {
		return fmt.Sprintf("%s · %s", q.Game, q.Mode)
	}
	return q.Game
}

func queueLine(q domain.Queue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** — %d/%d · <@%s> · termina <t:%d:R>",
		queueTitle(q), len(q.Members), q.PlayersNeeded, q.OwnerID, q.EndsAt.Unix())
	if q.RoleRequirement == domain.RoleRequirementRequired {
		b.WriteString(" · roles obligatorios")
	}
	return b.String()
}
