package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/taskboard/taskboard/internal/api"
	"github.com/taskboard/taskboard/internal/auth"
	"github.com/taskboard/taskboard/internal/comment"
	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/notify"
	"github.com/taskboard/taskboard/internal/realtime"
	"github.com/taskboard/taskboard/internal/reminder"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/task"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	s, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer s.Close()

	hub := realtime.NewHub()
	fanout := notify.New(s, hub)
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL())

	server := api.NewServer(
		cfg,
		s,
		task.NewEngine(s, fanout, hub),
		comment.NewEngine(s, fanout, hub),
		fanout,
		auth.NewService(s, issuer),
		issuer,
		hub,
	)

	scheduler := reminder.New(s, fanout,
		time.Duration(cfg.Reminder.PollIntervalSec)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("taskboard listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
