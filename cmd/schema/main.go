package main

import (
	"fmt"
	"os"

	"atfinder/internal/config"
	"atfinder/internal/db"
	"atfinder/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// 建表、补约束、建隔离策略，最后逐表探测并输出检查报告。
// 部署前跑一次，之后可重复执行。
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, finding env vars from system")
	}
	logger.Configure(zerolog.InfoLevel)

	cfg := config.Load()
	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	db.ApplyPolicies(gdb)

	// 检查报告
	ok := true
	for _, table := range db.Tables {
		exists, err := db.TableExists(gdb, table)
		if err != nil {
			log.Error().Err(err).Str("table", table).Msg("probe failed")
			ok = false
			continue
		}
		if !exists {
			log.Error().Str("table", table).Msg("table missing")
			ok = false
			continue
		}
		log.Info().Str("table", table).Msg("table ok")
	}

	if !ok {
		os.Exit(1)
	}
	log.Info().Msg("Schema check passed")
}
