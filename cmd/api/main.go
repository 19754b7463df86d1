package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gorilla/sessions"

	"uservault-prototype/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	pools, err := core.OpenPools(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open connection pools: %v", err)
	}
	defer pools.Close()

	if err := core.EnsureSchema(ctx, pools); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	// Gorilla cookie store for session management.
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))

	userRepo := core.NewPgUserRepository(pools)
	userCache := core.NewUserCache(pools.CacheClient(), cfg.UserCacheTTL())
	userStore := core.NewUserStore(userRepo, userCache)

	router := core.NewRouter(cfg, store, userStore)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	log.Printf("starting identity api on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
