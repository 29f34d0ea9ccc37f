package discord

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

const (
	uiDebounce   = 80 * time.Millisecond
	ctxRenderMax = 900 * time.Millisecond
)

// publishBoard publica el tablero de colas en ESTE canal y recuerda
// dónde quedó (si hay DB; sin DB el tablero vive hasta el restart).
func (r *Router) publishBoard(ctx context.Context, guildID, channelID string) error {
	embed, comps := r.renderBoard(guildID)
	msg, err := r.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: comps,
	})
	if err != nil {
		return err
	}
	if repo := r.store.UIRepo(); repo != nil {
		if err := repo.Upsert(ctx, guildID, channelID, msg.ID); err != nil {
			log.Printf("⚠️ board: no pude persistir la ubicación: %v", err)
		}
	}
	return nil
}

// RefreshBoard re-renderiza el tablero con debounce, para no pegarle
// a la API de Discord en cada click.
func (r *Router) RefreshBoard(guildID string) {
	r.refreshMu.Lock()
	if r.refreshTimer != nil {
		r.refreshTimer.Stop()
	}
	r.refreshTimer = time.AfterFunc(uiDebounce, func() {
		repo := r.store.UIRepo()
		if repo == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), ctxRenderMax)
		defer cancel()
		ui, err := repo.Get(ctx, guildID)
		if err != nil || ui.BoardChannelID == "" || ui.BoardMessageID == "" {
			return
		}
		embed, comps := r.renderBoard(guildID)
		em := []*discordgo.MessageEmbed{embed}
		if _, err := r.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
			Channel:    ui.BoardChannelID,
			ID:         ui.BoardMessageID,
			Embeds:     &em,
			Components: &comps,
		}); err != nil {
			log.Printf("⚠️ board edit: %v", err)
		}
	})
	r.refreshMu.Unlock()
}

func (r *Router) renderBoard(guildID string) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	qs := r.registry.GuildQueues(guildID)

	desc := "No hay colas abiertas. `/lfg create` y arrancamos."
	if len(qs) > 0 {
		var b strings.Builder
		for i, q := range qs {
			b.WriteString(queueLine(q))
			if q.Description != "" {
				b.WriteString("\n> " + q.Description)
			}
			if i < len(qs)-1 {
				b.WriteString("\n")
			}
		}
		desc = b.String()
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🎮 Colas abiertas",
		Description: desc,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	var comps []discordgo.MessageComponent
	if opts := boardJoinOptions(qs); len(opts) > 0 {
		comps = append(comps, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    "board_join",
				Placeholder: "Sumate a una cola…",
				Options:     opts,
			},
		}})
	}
	comps = append(comps, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Style: discordgo.SecondaryButton, Label: "Salir", CustomID: "board_leave", Emoji: &discordgo.ComponentEmoji{Name: "👋"}},
		discordgo.Button{Style: discordgo.SecondaryButton, Label: "Actualizar", CustomID: "board_refresh", Emoji: &discordgo.ComponentEmoji{Name: "🔄"}},
	}})
	return embed, comps
}

func boardJoinOptions(qs []domain.Queue) []discordgo.SelectMenuOption {
	var opts []discordgo.SelectMenuOption
	for _, q := range qs {
		if q.IsFull() {
			continue
		}
		opts = append(opts, discordgo.SelectMenuOption{
			Label:       queueTitle(q),
			Value:       q.ID,
			Description: descTrim(q.Description, 90),
		})
		if len(opts) == 25 { // límite de Discord por select
			break
		}
	}
	return opts
}

// descTrim corta por runas, no por bytes: las descripciones traen
// acentos y un corte a mitad de runa es UTF-8 inválido para Discord.
func descTrim(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
