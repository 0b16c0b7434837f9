package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"webinarbot/internal/app"
	"webinarbot/internal/config"
)

func main() {
	var (
		cfgPath   string
		storePath string
	)
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config json")
	flag.StringVar(&storePath, "store", "./users.json", "path to participants json")
	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := bootstrapConfig(cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Options{ConfigPath: cfgPath, StorePath: storePath})
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

// bootstrapConfig writes a first config document from the environment so the
// bot can start on a fresh host with nothing but a token exported.
func bootstrapConfig(path string) error {
	cfg := config.FromEnv()
	if cfg.Token == "" {
		return fmt.Errorf("no config at %s and TELEGRAM_BOT_TOKEN is unset", path)
	}
	return config.NewManager(path).Save(cfg)
}
