package db

import (
	"fmt"

	"atfinder/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open 建立数据库连接。连接对象由调用方持有并显式注入，
// 不再挂全局变量。
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=atfinder port=5432 sslmode=disable"
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	log.Info().Msg("Database connection established")
	return gdb, nil
}

// Migrate 建表 + 索引
func Migrate(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&models.AttributionRequest{},
		&models.Answer{},
		&models.Vote{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info().Msg("Database migration completed")
	return nil
}
