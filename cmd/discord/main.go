package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatgate/internal/ai"
	"chatgate/internal/command"
	"chatgate/internal/config"
	"chatgate/internal/discord"
	"chatgate/internal/mind"
	"chatgate/internal/policy"

	"github.com/robfig/cron/v3"

	_ "chatgate/internal/command/core"
	_ "chatgate/internal/command/persona"
	_ "chatgate/internal/command/policy"
)

func main() {
	cfg := config.New()

	store, err := policy.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("[ERR] Failed to open policy store: ", err)
	}
	defer store.Close()

	persona := mind.NewPersona(cfg.BasePromptPath)
	contexts := mind.NewContextStore(persona)
	gate := mind.NewAutoReplyGate(persona)
	provider := ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel)

	engine := mind.NewEngine(store, persona, contexts, gate,
		mind.DefaultCallLimiter(), provider, cfg.MaxMessageLength)

	services := &command.Services{
		Engine:   engine,
		Provider: provider,
		Config:   cfg,
	}

	bot, err := discord.New(cfg, services)
	if err != nil {
		log.Fatal("[ERR] Failed to create bot: ", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		n, err := store.SweepCooldowns(time.Hour, time.Now())
		if err != nil {
			log.Printf("[ERR] Cooldown sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[INFO] Cooldown sweep removed %d stale rows", n)
		}
	}); err != nil {
		log.Fatal("[ERR] Failed to schedule cooldown sweep: ", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if err := bot.Start(); err != nil {
		log.Fatal("[ERR] Failed to start bot: ", err)
	}
	log.Printf("[INFO] Bot is running with model %s at %s. Press Ctrl+C to exit.",
		cfg.OllamaModel, cfg.OllamaBaseURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("[INFO] Shutting down")
	bot.Shutdown()
}
