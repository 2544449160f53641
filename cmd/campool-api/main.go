// README: Entry point; loads config, wires services, starts HTTP server and the expiration sweeper.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campool/internal/ai"
	"campool/internal/config"
	"campool/internal/destgroup"
	httptransport "campool/internal/http"
	"campool/internal/http/handlers"
	"campool/internal/infra"
	"campool/internal/logging"
	"campool/internal/maps"
	"campool/internal/modules/chat"
	"campool/internal/modules/match"
	"campool/internal/modules/ride"
	"campool/internal/modules/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.NewLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	tokens := infra.NewJWTManager(cfg.Auth.JWTSecret)
	groups := destgroup.Default()

	userStore := user.NewPGStore(dbPool)
	userSvc := user.NewService(userStore, logger)

	rideStore := ride.NewPGStore(dbPool)
	rideSvc := ride.NewService(rideStore, logger, cfg.Rides.MaxSeats)

	matchStore := match.NewPGStore(dbPool)
	matchSvc := match.NewService(matchStore, groups, logger, cfg.Match.TopN)

	hub := chat.NewHub(logger)
	presence := chat.NewPresence(redisClient)
	chatStore := chat.NewPGStore(dbPool)
	chatSvc := chat.NewService(chatStore, hub, presence, rideSvc, logger)
	rideSvc.SetNotifier(chatSvc)

	var places *maps.PlacesService
	if cfg.Maps.APIKey != "" {
		places, err = maps.NewPlacesService(cfg.Maps.APIKey, cfg.Maps.Campus)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
	}

	var normalizer *ai.Normalizer
	if cfg.AI.GeminiKey != "" {
		normalizer, err = ai.NewNormalizer(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer normalizer.Close()
	}

	handler := httptransport.NewRouter(httptransport.Handlers{
		Users:        handlers.NewUserHandler(userSvc, tokens),
		Rides:        handlers.NewRideHandler(rideSvc, matchSvc),
		Chat:         handlers.NewChatHandler(chatSvc, hub),
		Destinations: handlers.NewDestinationHandler(groups, places, normalizer),
	}, tokens, logger)

	sweeper := ride.NewSweeper(rideStore, logger, cfg.Rides.SweepInterval, ride.PolicyZone(cfg.Rides.TZOffsetMin))
	go sweeper.Run(ctx)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("campool api listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
