package main

import (
	"database/sql"

	_ "github.com/ClickHouse/clickhouse-go/v2" // ClickHouse driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/configs"
)

func main() {
	cfg := configs.Load()
	logger := logrus.New()

	db, err := sql.Open("clickhouse", cfg.DBDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	if err := goose.SetDialect("clickhouse"); err != nil {
		logger.Fatalf("Goose: failed to set dialect: %v", err)
	}

	logger.Info("Running database migrations...")
	if err := goose.Up(db, "migrations"); err != nil {
		logger.Fatalf("Goose migration failed: %v", err)
	}
	logger.Info("Migrations completed successfully")
}
