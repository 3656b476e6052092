package database

import (
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// Connect dials the master (and any read slaves) and verifies connectivity
// with a ping, retrying until the database comes up or attempts run out.
func Connect(masterDSN string, slaves []string, opts *dbpg.Options, retries int, delaySec int) (*dbpg.DB, error) {
	if retries <= 0 {
		retries = 1
	}
	if delaySec <= 0 {
		delaySec = 1
	}

	var db *dbpg.DB
	var err error

	for attempt := 1; attempt <= retries; attempt++ {
		zlog.Logger.Info().Msgf("database connection attempt %d/%d", attempt, retries)

		db, err = dbpg.New(masterDSN, slaves, opts)
		if err != nil {
			zlog.Logger.Warn().Err(err).Msgf("dbpg.New failed on attempt %d/%d", attempt, retries)
			db = nil
		} else if db.Master == nil {
			err = fmt.Errorf("master connection is nil")
			zlog.Logger.Warn().Err(err).Msgf("no master connection on attempt %d/%d", attempt, retries)
			db = nil
		} else if pingErr := db.Master.Ping(); pingErr != nil {
			err = pingErr
			zlog.Logger.Warn().Err(pingErr).Msgf("ping failed on attempt %d/%d", attempt, retries)
			closeAll(db)
			db = nil
		} else {
			zlog.Logger.Info().Msg("database connection established")
			return db, nil
		}

		if attempt < retries {
			time.Sleep(time.Duration(delaySec) * time.Second)
		}
	}

	return nil, fmt.Errorf("connect to database after %d attempts: %w", retries, err)
}

func closeAll(db *dbpg.DB) {
	if db.Master != nil {
		db.Master.Close()
	}
	for _, s := range db.Slaves {
		if s != nil {
			s.Close()
		}
	}
}
