package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestStoreErrorTranslation(t *testing.T) {
	if err := storeError(nil); err != nil {
		t.Fatalf("nil must stay nil, got %v", err)
	}

	if err := storeError(pgx.ErrNoRows); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for no rows, got %v", err)
	}

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	if err := storeError(unique); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for unique violation, got %v", err)
	}

	other := &pgconn.PgError{Code: "57P01"}
	if err := storeError(other); !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection for other pg errors, got %v", err)
	}
}

func TestWrappedDetailIsOpaque(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err := storeError(unique)

	// Kind matches but the upstream error type does not leak through the
	// wrap; only its message does.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		t.Fatal("upstream error types must not be reachable through the taxonomy")
	}
	if !strings.Contains(err.Error(), "users_email_key") {
		t.Fatalf("expected detail in message, got %q", err.Error())
	}
}
