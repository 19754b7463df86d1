package core

import (
	"context"
)

// EnsureSchema creates the users table when it does not exist yet. It is
// idempotent and runs once at startup. The unique index on email is what
// enforces identity uniqueness; everything above it only reports violations.
func EnsureSchema(ctx context.Context, pools *Pools) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
    id              BIGSERIAL PRIMARY KEY,
    email           TEXT NOT NULL UNIQUE,
    hashed_password TEXT NOT NULL
)`

	conn, err := pools.AcquireStore(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, ddl); err != nil {
		return storeError(err)
	}
	return nil
}
