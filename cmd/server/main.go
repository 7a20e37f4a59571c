package main

import (
	"flag"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"

	"github.com/KintasS/crypto-exchange-path/configs"
	"github.com/KintasS/crypto-exchange-path/internal/pathfinder"
	"github.com/KintasS/crypto-exchange-path/internal/server"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before serving")
	flag.Parse()

	cfg := configs.Load()
	logger := logrus.New()

	db, err := gorm.Open(clickhouse.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrateFlag {
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatalf("Failed to get sql.DB: %v", err)
		}
		if err := goose.SetDialect("clickhouse"); err != nil {
			logger.Fatalf("Goose: failed to set dialect: %v", err)
		}
		logger.Info("Running database migrations...")
		if err := goose.Up(sqlDB, "migrations"); err != nil {
			logger.Fatalf("Goose migration failed: %v", err)
		}
	}

	st := store.NewGormStore(db)
	engine := pathfinder.New(st, logger)
	service := server.NewSearchService(engine, st, cfg.MaxResults, logger)
	handler := server.NewSearchHandler(service, st)

	router := server.NewRouter(&server.Config{
		SearchHandler: handler,
	})

	logger.Infof("Search API listening on :%s", cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}
