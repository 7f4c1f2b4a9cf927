package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/database"
	"go-easyapply-automation/internal/service"
)

func main() {
	check := flag.Bool("check", false, "verify the database connection and exit")
	flag.Parse()

	cfg, err := config.LoadService()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer repo.Close()
	log.Println("✅ Connected to database")

	if *check {
		version, size, err := repo.ServerInfo(ctx)
		if err != nil {
			log.Fatalf("❌ Query failed: %v", err)
		}
		log.Printf("🚀 Database version: %s", version)
		log.Printf("📦 Current database size: %s", size)
		return
	}

	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("✅ Migrations applied")

	sealer, err := service.NewSealer(cfg.APIKeySecret)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	tokens := service.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	srv := service.New(repo, tokens, sealer)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
