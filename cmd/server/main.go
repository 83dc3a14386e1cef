package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sensekit/behavior-engine-go/internal/api"
	"github.com/sensekit/behavior-engine-go/internal/config"
	"github.com/sensekit/behavior-engine-go/internal/engine"
	"github.com/sensekit/behavior-engine-go/internal/provider"
	"github.com/sensekit/behavior-engine-go/internal/store"
)

func main() {
	cfg := config.Load()

	slots, err := store.OpenSlots(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	defer slots.Close()

	st, err := store.New(slots)
	if err != nil {
		log.Fatal("Failed to initialize encrypted store:", err)
	}

	// Real hardware providers are injected by the host platform build;
	// this entrypoint offers simulated sources or an explicit denial.
	var loc provider.LocationProvider = provider.DeniedLocation{}
	var mot provider.MotionProvider = provider.DeniedMotion{}
	if cfg.SimMode {
		loc = &provider.SimLocation{BaseLat: 39.9042, BaseLon: 116.4074}
		mot = &provider.SimMotion{}
	}

	eng := engine.New(cfg.Engine, loc, mot, st)
	if cfg.SimMode {
		if !eng.Enable() {
			log.Printf("Engine could not be enabled; serving queries in disabled state")
		}
	}

	router := api.SetupRouter(cfg, eng)
	srv := &http.Server{Addr: cfg.Port, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		eng.Disable()
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server error:", err)
	}
}
