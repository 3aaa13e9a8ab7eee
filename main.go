package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"marcel.works/pointing/app"
	"marcel.works/pointing/app/config"
)

func main() {
	configPath := flag.String("config", "", "path to env file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln("could not load config:", err.Error())
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalln("could not build logger:", err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.App{Config: cfg, Logger: logger}
	if err := a.Start(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
