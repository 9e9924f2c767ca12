package main

import (
	"context"
	"errors"
	"os"

	"datagovchat/internal/api"
	"datagovchat/internal/config"
	"datagovchat/internal/logging"
	"datagovchat/internal/notify"
	"datagovchat/internal/redis"
	"datagovchat/internal/service/catalog"
	"datagovchat/internal/service/chatbot"
	"datagovchat/internal/service/dataset"
	"datagovchat/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	boot := logging.New(os.Stderr)

	cfg, err := config.Load(os.Getenv("DATAGOVCHAT_CONFIG"))
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}

	sink, err := logging.Open(cfg.BasicConfig.LogFile, cfg.BasicConfig.LogMaxSizeMB)
	if err != nil {
		boot.Fatal().Err(err).Msg("open log file")
	}
	defer sink.Close()
	logger := sink.Logger()

	dbType := cfg.BasicConfig.Database
	boot.Info().Str("db_type", dbType).Msg("Opening catalog database")
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		boot.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	// Create the downloads table
	if err := storage.Migrate(db, dbType); err != nil {
		boot.Fatal().Err(err).Msg("migrate database")
	}

	rdb, err := redis.NewRedisClient(cfg)
	switch {
	case errors.Is(err, redis.ErrDisabled):
	case err != nil:
		boot.Warn().Err(err).Msg("redis unavailable, download events disabled")
	default:
		defer rdb.Close()
	}

	opts := api.Options{
		Fetcher:           dataset.FromConfig(cfg, logger),
		Catalog:           catalog.NewService(db),
		Publisher:         notify.NewPublisher(rdb, logger),
		Logger:            logger,
		OutputFolder:      cfg.BasicConfig.OutputFolder,
		LegacyErrorStatus: cfg.BasicConfig.LegacyErrorStatus,
	}
	if responder, err := chatbot.FromConfig(context.Background(), cfg, logger); err != nil {
		boot.Warn().Err(err).Msg("chatbot disabled")
	} else {
		opts.Responder = responder
	}
	handlers := api.NewHandler(opts)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	boot.Info().Str("addr", addr).Msg("Serving dataset API")
	if err := router.Run(addr); err != nil {
		boot.Fatal().Err(err).Msg("server stopped")
	}
}
