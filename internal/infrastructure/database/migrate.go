package database

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

func RunMigrations(db *dbpg.DB, path string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db.Master, path); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	zlog.Logger.Info().Str("path", path).Msg("migrations applied")
	return nil
}
