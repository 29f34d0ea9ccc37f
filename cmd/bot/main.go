package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	discordrouter "github.com/jose-valero/lfg-queue-bot/internal/adapters/discord"
	"github.com/jose-valero/lfg-queue-bot/internal/app/service"
	"github.com/jose-valero/lfg-queue-bot/internal/infra/config"
	"github.com/jose-valero/lfg-queue-bot/internal/infra/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store best-effort: si la DB no está, arrancamos memory-only y
	// el ticker de reconexión la busca en el fondo.
	store := storage.NewStore(cfg.DatabaseURL)
	if err := store.Connect(ctx); err != nil {
		log.Printf("⚠️ DB no disponible, memory-only por ahora: %v", err)
	} else if cfg.DatabaseURL != "" {
		log.Println("✅ DB lista y migrada")
	}
	go store.Run(ctx, cfg.StoreReconnect)

	// Discord session
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(auth)), "bot ") {
		auth = "Bot " + strings.TrimSpace(auth)
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	log.Printf("✅ Conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

	// Services: el notifier y el rolesync van antes porque el
	// registry los necesita en el constructor.
	notifier := discordrouter.NewNotifier(s)
	roleSync := discordrouter.NewRoleSync(s)
	searches := service.NewSearchService(store, notifier)
	registry := service.NewRegistry(store, notifier, roleSync, searches, cfg.QueueMaxLifetime)

	// Rehidratar lo que quedó en la DB (si hay)
	loadCtx, loadCancel := context.WithTimeout(ctx, 10*time.Second)
	registry.Restore(loadCtx, store.LoadQueues(loadCtx))
	searches.Restore(loadCtx, store.LoadSearches(loadCtx))
	loadCancel()

	// Router
	r := discordrouter.NewRouter(s, cfg.DiscordGuild, registry, searches, store, cfg.AdminRoleIDs)
	if err := r.Register(); err != nil {
		log.Fatalf("registrando comandos: %v", err)
	}
	r.Handlers()
	notifier.OnChange = r.RefreshBoard
	log.Printf("✅ comandos registrados en guild %s", cfg.DiscordGuild)

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop
}
