package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	dbPingTimeout = 3 * time.Second
	dbConnectWait = 30 * time.Second
	dbMaxRetryGap = 4 * time.Second
)

// openDatabase opens the pool and waits for Postgres to accept connections.
// In container setups the API routinely comes up before the database does, so
// failed pings are retried with a growing gap until dbConnectWait runs out.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	deadline := time.Now().Add(dbConnectWait)
	gap := 250 * time.Millisecond
	var lastErr error

	for {
		pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()

		if lastErr == nil {
			return db, nil
		}
		if ctx.Err() != nil || time.Now().After(deadline) {
			break
		}

		time.Sleep(gap)
		if gap < dbMaxRetryGap {
			gap *= 2
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("database not reachable: %w", lastErr)
}
