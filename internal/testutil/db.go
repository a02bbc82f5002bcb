// Package testutil holds helpers for the Postgres integration tests. They
// skip when TEST_DATABASE_URL is unset so unit runs need no database.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/minfaz98/cozy-stay/internal/domain"
)

const dsnEnv = "TEST_DATABASE_URL"

// DSN returns the integration database URL, or "" when none is configured.
func DSN() string {
	return os.Getenv(dsnEnv)
}

// NewPool opens a pool to the test database, closed when the test ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// MustOpenSQLDB is for TestMain, where no *testing.T exists. The caller
// closes the returned db.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: open: " + err.Error())
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		panic("testutil.MustOpenSQLDB: ping: " + err.Error())
	}
	return db
}

// InsertRoom adds a room with a unique number so tests never collide with
// the seeded catalog or each other.
func InsertRoom(t *testing.T, pool *pgxpool.Pool, roomType domain.RoomType, priceCents int64, capacity int) domain.Room {
	t.Helper()

	room := domain.Room{
		Number:     fmt.Sprintf("T-%s", uuid.NewString()[:8]),
		Type:       roomType,
		PriceCents: priceCents,
		Capacity:   capacity,
		Status:     domain.RoomStatusAvailable,
	}
	err := pool.QueryRow(context.Background(), `INSERT INTO rooms (number, type, price_cents, capacity)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		room.Number, room.Type, room.PriceCents, room.Capacity).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		t.Fatalf("testutil.InsertRoom: %v", err)
	}
	return room
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := DSN()
	if dsn == "" {
		t.Skip(dsnEnv + " not set; skipping integration test")
	}
	return dsn
}
