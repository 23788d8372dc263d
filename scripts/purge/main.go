package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
	"github.com/laranjadociebr/Site-Barbearia/internal/app/bootstrap"
	appconfig "github.com/laranjadociebr/Site-Barbearia/internal/config"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

// Clears every booking under AGENDA_KEY in Redis and notifies open admin
// calendars so they re-render empty.
func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if len(os.Args) < 2 || os.Args[1] != "--yes" {
		fmt.Printf("This deletes all bookings under key %q at %s.\n", cfg.AgendaKey, cfg.RedisAddr)
		fmt.Println("Usage: go run ./scripts/purge --yes")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if client == nil {
		fmt.Printf("Error: redis unavailable at %s\n", cfg.RedisAddr)
		os.Exit(1)
	}
	defer client.Close()

	before := len(agenda.NewRedisStore(client, cfg.AgendaKey, logger).Load(ctx))
	if err := client.Del(ctx, cfg.AgendaKey).Err(); err != nil {
		fmt.Printf("Error deleting key: %v\n", err)
		os.Exit(1)
	}

	feed := agenda.NewRedisFeed(client, agenda.ChangeChannel(cfg.AgendaKey), logger)
	if err := feed.Publish(ctx, agenda.NewChange(cfg.AgendaKey, "purge", 0)); err != nil {
		fmt.Printf("Warning: change notification failed: %v\n", err)
	}

	fmt.Printf("Purged %d bookings from %q\n", before, cfg.AgendaKey)
}
