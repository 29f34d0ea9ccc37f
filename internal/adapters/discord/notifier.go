package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/lfg-queue-bot/internal/app/service"
	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

// Notifier implementa service.Notifier sobre Discord. Todo es
// best-effort: un DM que no sale se loguea y listo, el core ya
// commiteó en memoria.
type Notifier struct {
	s *discordgo.Session

	// OnChange lo setea main con router.RefreshBoard; puede quedar
	// nil en tests.
	OnChange func(guildID string)
}

func NewNotifier(s *discordgo.Session) *Notifier { return &Notifier{s: s} }

func (n *Notifier) changed(guildID string) {
	if n.OnChange != nil {
		n.OnChange(guildID)
	}
}

func (n *Notifier) QueueFull(q domain.Queue) {
	for _, m := range q.Members {
		n.dm(m, fmt.Sprintf("🎉 ¡La cola de **%s** está completa (%d/%d)! Coordinen por el server.",
			queueTitle(q), len(q.Members), q.PlayersNeeded))
	}
	n.changed(q.GuildID)
}

func (n *Notifier) QueueClosed(q domain.Queue, reason service.CloseReason) {
	if reason == service.CloseExpired || reason == service.CloseLimit {
		n.dm(q.OwnerID, fmt.Sprintf("⌛ Tu cola de **%s** se cerró (%s).", queueTitle(q), reason))
	}
	n.changed(q.GuildID)
}

func (n *Notifier) ExpiryAccelerated(q domain.Queue) {
	n.dm(q.OwnerID, fmt.Sprintf(
		"⚠️ El server está al límite de colas: la tuya de **%s** ahora vence <t:%d:R>.",
		queueTitle(q), q.EndsAt.Unix()))
	n.changed(q.GuildID)
}

// SearchMatched: avisa por DM con botón de confirmación. No mete al
// user en la cola; la búsqueda sigue viva hasta que confirme.
func (n *Notifier) SearchMatched(sr domain.StandingSearch, q domain.Queue) {
	ch, err := n.s.UserChannelCreate(sr.UserID)
	if err != nil {
		log.Printf("⚠️ notifier: DM channel %s: %v", sr.UserID, err)
		return
	}
	_, err = n.s.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Content: fmt.Sprintf("🔔 Apareció una cola que pega con tu búsqueda de **%s**: **%s** (%d/%d).",
			sr.Game, queueTitle(q), len(q.Members), q.PlayersNeeded),
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Style: discordgo.PrimaryButton, Label: "Entrar", CustomID: "s_join:" + q.ID, Emoji: &discordgo.ComponentEmoji{Name: "🎮"}},
		}}},
	})
	if err != nil {
		log.Printf("⚠️ notifier: DM match %s: %v", sr.UserID, err)
	}
}

func (n *Notifier) dm(userID, content string) {
	ch, err := n.s.UserChannelCreate(userID)
	if err != nil {
		log.Printf("⚠️ notifier: DM channel %s: %v", userID, err)
		return
	}
	if _, err := n.s.ChannelMessageSend(ch.ID, content); err != nil {
		log.Printf("⚠️ notifier: DM %s: %v", userID, err)
	}
}

// RoleSync implementa service.RoleSync: un rol de Discord por cola,
// para mencionar al grupo entero de una.
type RoleSync struct {
	s *discordgo.Session
}

func NewRoleSync(s *discordgo.Session) *RoleSync { return &RoleSync{s: s} }

func (r *RoleSync) CreateQueueRole(guildID, queueName string) (string, error) {
	mentionable := true
	role, err := r.s.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:        "LFG " + queueName,
		Mentionable: &mentionable,
	})
	if err != nil {
		return "", err
	}
	return role.ID, nil
}

func (r *RoleSync) Grant(guildID, userID, roleID string) {
	if err := r.s.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		log.Printf("⚠️ rolesync: grant %s→%s: %v", roleID, userID, err)
	}
}

func (r *RoleSync) Revoke(guildID, userID, roleID string) {
	if err := r.s.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		log.Printf("⚠️ rolesync: revoke %s→%s: %v", roleID, userID, err)
	}
}

func (r *RoleSync) DeleteQueueRole(guildID, roleID string) {
	if err := r.s.GuildRoleDelete(guildID, roleID); err != nil {
		log.Printf("⚠️ rolesync: delete %s: %v", roleID, err)
	}
}
