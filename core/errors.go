package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds shared across the pools, the store, the cache and the
// credential hasher. Callers match with errors.Is; the detail carried
// alongside a kind is an opaque message string, never a client library
// error type, so swapping the concrete store or cache client does not
// change the contract.
var (
	// ErrConnection is returned when a pool is exhausted, a backend is
	// unreachable, or an acquire/command deadline elapses.
	ErrConnection = errors.New("connection failure")
	// ErrNotFound is returned when no row exists for the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned on a uniqueness violation during create.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrSerialization is returned when a cache payload fails to encode.
	ErrSerialization = errors.New("serialization failure")
	// ErrDeserialization is returned when a cached payload fails to decode.
	ErrDeserialization = errors.New("deserialization failure")
	// ErrHash is returned on catastrophic hashing failure (RNG exhaustion).
	ErrHash = errors.New("password hash failure")
	// ErrMalformedHash signals an unparseable stored hash; verification
	// reports it to logging only and answers false to the caller.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrSession is returned when the session user_id field cannot be
	// written. Fatal to the login flow; never swallowed.
	ErrSession = errors.New("session write failure")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

// wrapKind pairs an error kind with opaque upstream detail. The detail is
// flattened to a message string so foreign error types never ride along.
func wrapKind(kind error, detail any) error {
	return fmt.Errorf("%w: %v", kind, detail)
}

// storeError translates a pgx-level error into the taxonomy.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return wrapKind(ErrConnection, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return wrapKind(ErrAlreadyExists, pgErr.ConstraintName)
	}
	return wrapKind(ErrConnection, err)
}

// cacheError translates a go-redis error into the taxonomy. redis.Nil is a
// miss, not a failure, and must be checked before calling this.
func cacheError(err error) error {
	if err == nil {
		return nil
	}
	return wrapKind(ErrConnection, err)
}
