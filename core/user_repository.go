package core

import (
	"context"
)

// User is the persisted identity entity. The JSON tags define the cache
// payload format; HashedPassword is a one-way derived value, never the raw
// credential, which is why mirroring it into the cache is acceptable.
type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"hashed_password"`
}

// NewUser is the transient construction value for a registration. It only
// ever carries the already-hashed password and is never serialized, logged
// or cached.
type NewUser struct {
	Email          string
	HashedPassword string
}

// NewUserFromCredentials hashes rawPassword synchronously and discards it;
// the returned value holds no raw credential.
func NewUserFromCredentials(email, rawPassword string) (NewUser, error) {
	hash, err := HashPassword(rawPassword)
	if err != nil {
		return NewUser{}, err
	}
	return NewUser{Email: email, HashedPassword: hash}, nil
}

// UserRepository defines durable persistence operations for users. The
// durable store is the single source of truth for email uniqueness.
type UserRepository interface {
	Create(ctx context.Context, nu NewUser) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

// PgUserRepository implements UserRepository over the store pool.
type PgUserRepository struct {
	pools *Pools
}

func NewPgUserRepository(pools *Pools) *PgUserRepository {
	return &PgUserRepository{pools: pools}
}

// Create inserts the row and returns it with the store-assigned id. A
// uniqueness violation surfaces as ErrAlreadyExists.
func (r *PgUserRepository) Create(ctx context.Context, nu NewUser) (User, error) {
	conn, err := r.pools.AcquireStore(ctx)
	if err != nil {
		return User{}, err
	}
	defer conn.Release()

	const q = `INSERT INTO users (email, hashed_password) VALUES ($1,$2) RETURNING id`
	u := User{Email: nu.Email, HashedPassword: nu.HashedPassword}
	if err := conn.QueryRow(ctx, q, nu.Email, nu.HashedPassword).Scan(&u.ID); err != nil {
		return User{}, storeError(err)
	}
	return u, nil
}

// FindByEmail returns the row for email, or ErrNotFound.
func (r *PgUserRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	conn, err := r.pools.AcquireStore(ctx)
	if err != nil {
		return User{}, err
	}
	defer conn.Release()

	const q = `SELECT id, email, hashed_password FROM users WHERE email=$1`
	var u User
	if err := conn.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.HashedPassword); err != nil {
		return User{}, storeError(err)
	}
	return u, nil
}
