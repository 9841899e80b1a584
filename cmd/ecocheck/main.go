package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecocheck/ecocheck/internal/pkg/config"
	"github.com/ecocheck/ecocheck/internal/pkg/env"
)

func main() {
	autoResolveOnce := flag.Bool("autoresolve-once", false, "run one auto-resolve sweep and exit")
	flag.Parse()

	env.SetupEnvFile()
	cfg := config.Load()

	svc, err := NewServices(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}

	if *autoResolveOnce {
		summary, err := svc.Manager.RunAutoResolveOnce(context.Background())
		if err != nil {
			log.Fatalf("auto-resolve failed: %v", err)
		}
		out, _ := json.Marshal(summary)
		log.Printf("auto-resolve finished: %s", out)
		return
	}

	app := NewApplication(cfg, svc)
	svc.Manager.Start()

	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	svc.Manager.Stop()
	svc.Close()
}
