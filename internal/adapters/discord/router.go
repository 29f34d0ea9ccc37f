package discord

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/lfg-queue-bot/internal/app/service"
	"github.com/jose-valero/lfg-queue-bot/internal/infra/storage"
)

type Router struct {
	s       *discordgo.Session
	guildID string

	registry *service.Registry
	searches *service.SearchService
	store    *storage.Store

	adminRoleIDs []string
	clickLimiter *userLimiter

	refreshMu    sync.Mutex
	refreshTimer *time.Timer
}

func NewRouter(
	s *discordgo.Session,
	guildID string,
	registry *service.Registry,
	searches *service.SearchService,
	store *storage.Store,
	adminRoleIDs []string,
) *Router {
	return &Router{
		s:            s,
		guildID:      guildID,
		registry:     registry,
		searches:     searches,
		store:        store,
		adminRoleIDs: adminRoleIDs,
		clickLimiter: newUserLimiter(1500 * time.Millisecond),
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			data := ic.ApplicationCommandData()
			log.Printf("slash: /%s by=%s guild=%s", data.Name, interactionUserID(ic), ic.GuildID)

			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("panic in slash /%s: %v", data.Name, rec)
					ReplyEphemeral(s, ic, "⚠️ Ocurrió un error inesperado.")
				}
			}()

			_ = DeferEphemeral(s, ic)
			ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
			defer cancel()
			r.handleSlash(ctx, s, ic)

		case discordgo.InteractionMessageComponent:
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("panic in component %s: %v", ic.MessageComponentData().CustomID, rec)
					ReplyEphemeral(s, ic, "⚠️ Ocurrió un error inesperado.")
				}
			}()
			r.handleComponent(s, ic)
		}
	})
}
